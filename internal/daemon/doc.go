// Package daemon hosts the connector inside the long-running ascbridge
// process.
//
// It wires configuration, the exchange journal, and the answer router around
// a single connector and holds a flock-based lock so only one daemon drives
// the pipes at a time. The daemon offers the request/await helper used by the
// control socket: a request is queued and the caller may wait a bounded time
// for the answer whose echoed key matches it.
//
// Keep orchestration here. Transport and lifecycle rules live in the
// connector; answer decoding lives in dispatch.
package daemon
