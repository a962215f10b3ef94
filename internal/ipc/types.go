package ipc

import (
	"encoding/json"

	"ascbridge/internal/config"
)

// ServiceName is the RPC receiver name registered by the server.
const ServiceName = "AscBridge"

// ConnectRequest asks the daemon to open the peer connection.
type ConnectRequest struct{}

// ConnectResponse reports the connector after the attempt.
type ConnectResponse struct {
	State     string `json:"state"`
	SessionID string `json:"session_id"`
}

// DisconnectRequest asks the daemon to close the peer connection.
type DisconnectRequest struct{}

// DisconnectResponse reports the connector after closing.
type DisconnectResponse struct {
	State string `json:"state"`
}

// RestartRequest asks the daemon to recreate a running connection.
type RestartRequest struct{}

// RestartResponse reports the connector after the restart.
type RestartResponse struct {
	State     string `json:"state"`
	SessionID string `json:"session_id"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

// StatusRequest requests daemon status.
type StatusRequest struct{}

// ScopeStatus is the wire form of daemon.ScopeStatus.
type ScopeStatus struct {
	Name        string   `json:"name"`
	Armed       bool     `json:"armed"`
	Captures    int      `json:"captures"`
	Resets      int      `json:"resets"`
	Signals     []string `json:"signals,omitempty"`
	Samples     int      `json:"samples"`
	LastCapture string   `json:"last_capture,omitempty"`
}

// StatusResponse reports daemon, connector, and queue state.
type StatusResponse struct {
	Running     bool                    `json:"running"`
	PID         int                     `json:"pid"`
	StartedAt   string                  `json:"started_at,omitempty"`
	LockPath    string                  `json:"lock_path"`
	JournalPath string                  `json:"journal_path,omitempty"`
	PeerMode    string                  `json:"peer_mode"`
	State       string                  `json:"state"`
	SessionID   string                  `json:"session_id,omitempty"`
	ConnectedAt string                  `json:"connected_at,omitempty"`
	Queued      int                     `json:"queued"`
	Unfinished  int                     `json:"unfinished"`
	QueueLocked bool                    `json:"queue_locked"`
	Answers     int64                   `json:"answers"`
	Waiting     int                     `json:"waiting"`
	Params      config.ConnectionParams `json:"params"`
	Scopes      []ScopeStatus           `json:"scopes,omitempty"`
}

// SendRequest queues one request for the peer. A positive WaitMillis blocks
// the call until the matching answer arrives or the wait elapses.
type SendRequest struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Method     string         `json:"method"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	WaitMillis int64          `json:"wait_millis"`
}

// SendResponse reports the correlation key and, when awaited, the answer.
type SendResponse struct {
	Key      string          `json:"key"`
	Answered bool            `json:"answered"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// ParamsRequest requests the connection parameters in effect.
type ParamsRequest struct{}

// ParamsResponse returns the connection parameters.
type ParamsResponse struct {
	Params config.ConnectionParams `json:"params"`
}

// SetParamsRequest replaces the connection parameters.
type SetParamsRequest struct {
	Params config.ConnectionParams `json:"params"`
}

// SetParamsResponse reports the connector after applying the parameters.
type SetParamsResponse struct {
	State string `json:"state"`
}

// HistoryRequest requests recent journal entries.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryEntry is the wire form of journal.Entry.
type HistoryEntry struct {
	ID         int64  `json:"id"`
	SessionID  string `json:"session_id"`
	Direction  string `json:"direction"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Method     string `json:"method"`
	Key        string `json:"key"`
	Answer     string `json:"answer,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// HistoryResponse returns journal entries, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}
