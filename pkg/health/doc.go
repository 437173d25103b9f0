// Package health provides a small Checker abstraction for periodically
// probing an external dependency's reachability.
//
// The only implementation wired up is HTTPChecker, used to poll the L2
// feeder gateway's liveness independently of the request/response path
// the chain client uses for actual block and transaction calls. A
// Status tracks consecutive successes/failures and only flips healthy
// state after Config.Retries consecutive failures, avoiding flapping the
// health endpoint on a single dropped request.
package health
