package connector

import "sync"

var (
	sharedMu sync.Mutex
	shared   *Connector
)

// Shared returns the process-wide connector, building it from opts on first
// use. Later calls only rebind the answer sink to opts.Sink.
func Shared(opts Options) *Connector {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = New(opts)
		return shared
	}
	shared.SetSink(opts.Sink)
	return shared
}

// ReleaseShared closes and forgets the process-wide connector.
func ReleaseShared() error {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		return nil
	}
	err := shared.CloseConnection()
	shared = nil
	return err
}
