package models

// Event type tags match the frontend's websocket protocol: the coarse stage a
// progress message belongs to.
const (
	EventDownload  = "download"
	EventEmbedding = "embedding"
	EventDatabase  = "database"
)

// Event statuses within a stage.
const (
	StatusStarted    = "started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// ProgressEvent is a transient progress message pushed to a subscriber over
// its websocket connection. Never persisted; delivery is best-effort.
type ProgressEvent struct {
	Type     string `json:"type"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Current  int    `json:"current,omitempty"`
	Total    int    `json:"total,omitempty"`
	Message  string `json:"message"`
}

// Percent computes a 0-100 progress value from current/total counts.
func Percent(current, total int) int {
	if total <= 0 {
		return 0
	}
	return current * 100 / total
}
