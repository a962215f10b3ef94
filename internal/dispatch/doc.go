// Package dispatch routes decoded answers to handlers keyed by request type
// and method. A Router is an answer sink for the connector.
package dispatch
