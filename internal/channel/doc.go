// Package channel pairs an inbound and an outbound pipe transport into one
// duplex link that is opened, used, and torn down as a unit.
//
// Transport faults never escape Send or Receive: they are logged at critical
// severity and the channel closes itself, which the connector loops observe
// through IsConnected.
package channel
