// Package eventlog wraps analytics fields into events and writes them to a
// sink.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one logged analytics event.
type Event struct {
	ID       string         `json:"id"`
	Schema   string         `json:"schema"`
	Revision int            `json:"revision"`
	Fields   map[string]any `json:"event"`
	Time     time.Time      `json:"dt"`
}

// Sink stores or forwards events.
type Sink interface {
	Write(ctx context.Context, ev Event) error
}

// Logger builds events and hands them to its sink.
type Logger struct {
	sink     Sink
	standard *Standard
	now      func() time.Time
}

// NewLogger returns a Logger writing to sink. Standard fields come from
// standard.
func NewLogger(sink Sink, standard *Standard) *Logger {
	return &Logger{sink: sink, standard: standard, now: time.Now}
}

// StandardFields returns the contextual fields attached to every event.
func (l *Logger) StandardFields() map[string]any {
	return l.standard.Fields()
}

// Log writes fields as an event of the given schema. ack, when not nil, is
// called with the logged fields only after the sink accepted the event.
func (l *Logger) Log(ctx context.Context, schema string, revision int, fields map[string]any, ack func(map[string]any) error) error {
	ev := Event{
		ID:       uuid.NewString(),
		Schema:   schema,
		Revision: revision,
		Fields:   fields,
		Time:     l.now().UTC(),
	}
	if err := l.sink.Write(ctx, ev); err != nil {
		return fmt.Errorf("writing %s event: %w", schema, err)
	}
	if ack == nil {
		return nil
	}
	if err := ack(fields); err != nil {
		return fmt.Errorf("acknowledging %s event %s: %w", schema, ev.ID, err)
	}
	return nil
}
