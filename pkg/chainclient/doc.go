// Package chainclient is the only component that makes block,
// transaction and contract calls to the L2 feeder gateway and gateway
// (pkg/health separately polls the feeder gateway's reachability). The
// crawler and interpreter depend on its Client type, not net/http
// directly, and can be tested against an httptest.Server standing in
// for the gateway.
package chainclient
