// Command ascbridge controls the ascbridge daemon: it runs or launches the
// daemon, opens and closes the peer connection, sends requests and prints
// their answers, and inspects status, connection parameters, and the exchange
// journal.
package main
