// Package log provides structured logging built on zerolog.
//
// Init configures the global Logger once at process start; the crawler
// (including its purge pass), the interpreter and the enricher each
// derive a child logger via WithComponent so log lines can be filtered
// by subsystem in aggregation tooling. The signature package does not
// log.
package log
