// Package pipe implements one-directional, newline-framed transports over OS
// named pipes.
//
// On Unix a transport is a FIFO special file under a configured directory; on
// Windows it is a \\.\pipe\ endpoint served by the peer and dialled by the
// connector. Both variants sit behind Transport and are created through the
// Opener returned by NewOpener, so the channel layer never sees the platform.
// Every I/O fault is reported wrapped in ErrBrokenChannel.
package pipe
