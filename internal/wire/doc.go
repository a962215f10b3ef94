// Package wire defines the request model exchanged with the peer and the
// newline-delimited JSON envelope that correlates each answer to its request.
//
// A request is serialized once, before it is queued; the resulting string is
// both the queue element and the correlation key. The peer answers with a
// single-entry object whose key is that string, so no request identifiers
// travel on the wire.
package wire
