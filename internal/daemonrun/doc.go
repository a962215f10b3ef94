// Package daemonrun wires configuration, logging, the exchange journal, the
// shared connector, the daemon, and the IPC server into the foreground daemon
// process started by `ascbridge daemon run`.
package daemonrun
