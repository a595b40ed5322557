package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents the datamart lifecycle events published after a reload
type EventType string

const (
	EventDatamartReloaded     EventType = "datamart.reloaded"
	EventDatamartReloadFailed EventType = "datamart.reload_failed"
	EventDimensionReloaded    EventType = "datamart.dimension_reloaded"
)

const (
	eventSource  = "reporting-service"
	eventVersion = "1.0"
)

// Event is the envelope for every datamart event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ReloadEvent describes the outcome of a full or targeted reload
type ReloadEvent struct {
	Mode        string         `json:"mode"` // "full" or the dimension name
	Stage       string         `json:"stage"`
	Rows        map[string]int `json:"rows,omitempty"`
	SkippedFact int            `json:"skipped_fact_groups"`
	DurationMS  int64          `json:"duration_ms"`
	Error       string         `json:"error,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}
