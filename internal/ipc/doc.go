// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and conversions
// between daemon, connector, and journal models and their wire
// representations. Times travel as RFC 3339 strings and answer values as raw
// JSON so the client never reinterprets what the peer sent.
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
