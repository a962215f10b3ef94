// Package journal records sent requests and received answers in SQLite for
// diagnostics.
//
// The journal is an audit trail only. Nothing is replayed from it: queued
// requests are never persisted and a restart always begins with an empty
// outbound queue.
package journal
