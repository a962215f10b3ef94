// Package daemonctl starts and stops the ascbridge daemon from the CLI: it
// launches a detached daemon process, waits for its control socket, and asks
// it to shut down, killing it by pid file when it does not.
package daemonctl
