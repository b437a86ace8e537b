package api

import (
	"io"
	"log/slog"
	"time"
)

// CallEvent records metadata about a single API call.
type CallEvent struct {
	Method    string
	Path      string
	Status    int
	Latency   time.Duration
	RequestID string
	ErrorCode string
}

// Success reports whether the call completed with a 2xx status.
func (e CallEvent) Success() bool { return e.ErrorCode == "" }

// Observer receives events about API calls for logging.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events as structured log lines.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer, opts *slog.HandlerOptions) *LogObserver {
	return &LogObserver{logger: slog.New(slog.NewTextHandler(w, opts))}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	attrs := []any{
		"method", event.Method,
		"path", event.Path,
		"status", event.Status,
		"latency_ms", event.Latency.Milliseconds(),
		"request_id", event.RequestID,
	}
	if !event.Success() {
		o.logger.Warn("api_call", append(attrs, "error_code", event.ErrorCode)...)
		return
	}
	o.logger.Info("api_call", attrs...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
