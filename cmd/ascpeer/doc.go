// Package main is the standalone imitator peer. Point peer.executable at this
// binary to exercise process mode without the real bridging peer. The
// launcher passes the pipe directory and names through the environment.
package main
