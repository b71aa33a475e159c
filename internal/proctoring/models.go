package proctoring

// Discrete event types reported by the client. The set is advisory: unknown
// types are stored as-is so new client signals never get dropped server-side.
const (
	EventTabHidden       = "tab_hidden"
	EventTabVisible      = "tab_visible"
	EventPageLeave       = "page_leave"
	EventWebcamDenied    = "webcam_access_denied"
	EventCriticalError   = "critical_error"
	EventDurationElapsed = "duration_elapsed"
)

// Log is one discrete telemetry event. Append-only; never tied to the
// attempt's completion state.
type Log struct {
	ID        int64  `json:"id"`
	AttemptID string `json:"attempt_id"`
	UserID    string `json:"user_id"`
	EventType string `json:"event_type"`
	LogData   string `json:"log_data,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Image is one webcam snapshot record; the bytes live in the blob store
// under ImageKey.
type Image struct {
	ID         int64  `json:"id"`
	AttemptID  string `json:"attempt_id"`
	UserID     string `json:"user_id"`
	QuizID     string `json:"quiz_id"`
	ImageKey   string `json:"image_key"`
	CapturedAt int64  `json:"captured_at"`
}
