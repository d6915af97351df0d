package eventlog

import (
	"context"
	"log/slog"
)

// SlogSink writes each event as a structured log line.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink logging through logger, or the default logger
// when logger is nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Write(ctx context.Context, ev Event) error {
	attrs := make([]any, 0, len(ev.Fields))
	for k, v := range ev.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.InfoContext(ctx, "event logged",
		"event_id", ev.ID,
		"schema", ev.Schema,
		"revision", ev.Revision,
		slog.Group("event", attrs...),
	)
	return nil
}
