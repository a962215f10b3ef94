// Package logs reads the daemon log for the CLI.
//
// Last returns the final lines of a file with bounded memory. Follow streams
// lines appended after a starting point and re-resolves the ascbridge.log
// pointer on every poll, so a daemon restart that switches the pointer to a
// new per-run file is picked up from that file's first line.
package logs
