// Package imitator is a simulated peer. It attaches to the reversed pipe pair
// and answers Scope requests with synthetic captures, echoing each request
// line as the envelope key.
//
// An Imitator can run in-process, where it doubles as the connector's peer
// Process, or standalone inside the ascpeer binary.
package imitator
