package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseEvent_ImplementsEvent(t *testing.T) {
	now := time.Now()
	e := BaseEvent{
		Type:      "test.event",
		Entity:    EntitySync,
		ID:        42,
		Timestamp: now,
	}

	assert.Equal(t, "test.event", e.EventType())
	assert.Equal(t, EntitySync, e.EntityType())
	assert.Equal(t, int64(42), e.EntityID())
	assert.Equal(t, now, e.OccurredAt())
}

func TestNewBaseEvent(t *testing.T) {
	e := NewBaseEvent(EventSyncStarted, EntitySync, 123)

	assert.Equal(t, EventSyncStarted, e.EventType())
	assert.Equal(t, EntitySync, e.EntityType())
	assert.Equal(t, int64(123), e.EntityID())
	assert.False(t, e.OccurredAt().IsZero())
}

func TestPersistable(t *testing.T) {
	assert.True(t, persistable(&SyncStarted{}))
	assert.True(t, persistable(&SyncFailed{}))
	assert.False(t, persistable(&SyncProgressed{}))
	assert.False(t, persistable(SyncProgressed{}))
}
