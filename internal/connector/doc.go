// Package connector owns the link to the peer process: the lifecycle state
// machine, the locked outbound queue, the duplex channel, and the sender and
// receiver goroutines.
//
// Each successful CreateConnection starts a session. Both loops of a session
// end through endSession, which tears the connection down only if that
// session is still current, so a loop left over from before a Restart cannot
// close the newer connection. There is no automatic reconnect: after a fault
// the connector stays disconnected until CreateConnection or Restart is called.
//
// Shared returns the process-wide instance; New builds an independent one for
// explicit injection.
package connector
