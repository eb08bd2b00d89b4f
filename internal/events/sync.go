package events

// Sync lifecycle event types. The entity id is the run id.
const (
	EventSyncStarted    = "sync.started"
	EventSyncProgressed = "sync.progressed"
	EventSyncCompleted  = "sync.completed"
	EventSyncFailed     = "sync.failed"
	EventSyncCancelled  = "sync.cancelled"

	EventCatalogCleared = "catalog.cleared"
)

// TerminalSyncEvents are the event types that end a run.
var TerminalSyncEvents = []string{EventSyncCompleted, EventSyncFailed, EventSyncCancelled}

// SyncStarted is emitted when a run begins.
type SyncStarted struct {
	BaseEvent
	Mode    string `json:"mode"`
	Scope   string `json:"scope"`
	Trigger string `json:"trigger"` // "manual", "startup", "schedule", "shutdown"
}

// SyncProgressed reports progress within a phase. Not persisted.
type SyncProgressed struct {
	BaseEvent
	Phase     string `json:"phase"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

func (SyncProgressed) Transient() bool { return true }

// SyncCompleted is emitted when a run finishes successfully.
type SyncCompleted struct {
	BaseEvent
	Mode       string `json:"mode"`
	Scope      string `json:"scope"`
	DurationMS int64  `json:"duration_ms"`
	Movies     int    `json:"movies"`
	Series     int    `json:"series"`
}

// SyncFailed is emitted when a run ends with an error.
type SyncFailed struct {
	BaseEvent
	Mode      string `json:"mode"`
	Scope     string `json:"scope"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// SyncCancelled is emitted when a run is cancelled or superseded.
type SyncCancelled struct {
	BaseEvent
	Mode   string `json:"mode"`
	Scope  string `json:"scope"`
	Reason string `json:"reason"`
}

// CatalogCleared is emitted when cached data is wiped.
type CatalogCleared struct {
	BaseEvent
	Scope string `json:"scope"`
}
