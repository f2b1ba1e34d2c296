package ports

import (
	"context"
	"time"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// HTTPServer defines the interface for the HTTP server
type HTTPServer interface {
	Start(ctx context.Context, port int, host string) error
	Stop(ctx context.Context) error
	Publish(event StreamEvent) error
	IsRunning() bool
}

// StreamEvent is one message sent to websocket clients
type StreamEvent struct {
	Type      string                  `json:"type"`
	Timestamp time.Time               `json:"timestamp"`
	Progress  *entities.ProgressEvent `json:"progress,omitempty"`
	Result    *entities.CompileResult `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// StreamEvent types
const (
	EventTypeConnected = "connected"
	EventTypeProgress  = "progress"
	EventTypeResult    = "result"
	EventTypeError     = "error"
)

// MetricsRecorder observes server activity
type MetricsRecorder interface {
	ObserveCompile(result *entities.CompileResult, err error)
	ObserveStream()
	Snapshot() entities.RuntimeMetrics
	Health() entities.HealthReport
}
