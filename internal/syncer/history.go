package syncer

import (
	"fmt"
	"time"

	"github.com/vmunix/shelfsync/internal/events"
)

// HistoryEntry summarizes a finished run.
type HistoryEntry struct {
	RunID    int64
	Outcome  string // "completed", "failed", "cancelled"
	Mode     string
	Scope    string
	Message  string
	At       time.Time
	Duration time.Duration
	Movies   int
	Series   int
}

// History reads finished runs from the event log, newest first.
type History struct {
	log      *events.EventLog
	registry *events.Registry
}

// NewHistory creates a history reader over log.
func NewHistory(log *events.EventLog) *History {
	return &History{log: log, registry: events.DefaultRegistry()}
}

// Recent returns up to limit finished runs.
func (h *History) Recent(limit int) ([]HistoryEntry, error) {
	raws, err := h.log.Recent(events.TerminalSyncEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("read sync history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		e, err := h.registry.Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		entry := HistoryEntry{RunID: raw.EntityID, At: e.OccurredAt()}
		switch ev := e.(type) {
		case *events.SyncCompleted:
			entry.Outcome = "completed"
			entry.Mode, entry.Scope = ev.Mode, ev.Scope
			entry.Duration = time.Duration(ev.DurationMS) * time.Millisecond
			entry.Movies, entry.Series = ev.Movies, ev.Series
		case *events.SyncFailed:
			entry.Outcome = "failed"
			entry.Mode, entry.Scope = ev.Mode, ev.Scope
			entry.Message = ev.Message
		case *events.SyncCancelled:
			entry.Outcome = "cancelled"
			entry.Mode, entry.Scope = ev.Mode, ev.Scope
			entry.Message = ev.Reason
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
