package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. connection_opened).
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldSessionID identifies one connector session (create to close).
	FieldSessionID = "session_id"
	// FieldPipe is the OS path of a pipe endpoint.
	FieldPipe = "pipe"
	// FieldRequest is the serialized request string, which doubles as the correlation key.
	FieldRequest = "request"
)
