// Package lockedqueue provides the outbound mailbox used by the connector.
//
// Items are serialized requests ordered by their natural string order. The
// queue can be locked, in which case Put is rejected; a new queue starts
// locked so nothing is accepted before a connection exists.
package lockedqueue
