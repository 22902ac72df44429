package models

import (
	"fmt"
	"time"
)

// Stream frame types emitted by the upstream NDJSON stream.
const (
	FrameNew       = "new"
	FrameUpdated   = "updated"
	FrameConnected = "connected"
)

// StreamDelta is one incremental frame from the live event stream.
// Optional fields are pointers so that absence can be distinguished
// from a zero value when folding the delta into an existing event.
type StreamDelta struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Lead        *string    `json:"lead,omitempty"`
	Category    string     `json:"category"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	SourceCount *int       `json:"sourceCount,omitempty"`
	Type        string     `json:"type"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Validate checks the frame carries the fields the merge logic requires.
// "connected" frames are acknowledgment-only and need no ID.
func (d *StreamDelta) Validate() error {
	switch d.Type {
	case FrameConnected:
		return nil
	case FrameNew, FrameUpdated:
		if d.ID == "" {
			return fmt.Errorf("stream frame missing id")
		}
		return nil
	default:
		return fmt.Errorf("unknown stream frame type %q", d.Type)
	}
}

// ApplyTo folds the delta into a copy of an existing event. Incoming
// fields win on conflict; UpdatedAt is always refreshed. The receiver
// event is not modified.
func (d *StreamDelta) ApplyTo(e Event) Event {
	if d.Title != "" {
		e.Title = d.Title
	}
	if d.Lead != nil {
		e.Lead = *d.Lead
	}
	if d.Category != "" {
		e.Category = d.Category
	}
	if d.ImageURL != nil {
		e.ImageURL = *d.ImageURL
	}
	if d.SourceCount != nil {
		e.SourceCount = *d.SourceCount
	}
	if d.UpdatedAt != nil {
		e.UpdatedAt = *d.UpdatedAt
	} else if !d.Timestamp.IsZero() {
		e.UpdatedAt = d.Timestamp
	} else {
		e.UpdatedAt = time.Now()
	}
	return e
}
