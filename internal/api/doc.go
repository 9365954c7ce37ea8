// Package api serves a KV node over HTTP.
//
// The router exposes the endpoints the load driver talks to (/put on the
// leader, /get on any node) plus the replica RPCs (/replicate,
// /getReplica), runtime quorum changes (/config) and /health. Writes are
// stamped with the leader's clock in Unix nanoseconds, and /get answers
// with that timestamp so clients can measure staleness.
package api
