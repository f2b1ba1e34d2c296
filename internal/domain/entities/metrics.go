package entities

import "time"

// RuntimeMetrics is a snapshot of server activity and process health
type RuntimeMetrics struct {
	StartedAt      time.Time `json:"started_at"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	LastCompileAt  time.Time `json:"last_compile_at,omitempty"`
	Compiles       int64     `json:"compiles"`
	Failures       int64     `json:"failures"`
	Canceled       int64     `json:"canceled"`
	SlidesRendered int64     `json:"slides_rendered"`
	StreamSessions int64     `json:"stream_sessions"`

	// AverageCompileMs is an exponential moving average over compiles
	AverageCompileMs float64 `json:"average_compile_ms"`

	MemoryBytes int64  `json:"memory_bytes"`
	HeapBytes   int64  `json:"heap_bytes"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`

	ResidentBytes int64   `json:"resident_bytes"`
	CPUPercent    float64 `json:"cpu_percent"`
	Load1         float64 `json:"load1"`
}

// HealthReport is the body of the health endpoint
type HealthReport struct {
	Status   string   `json:"status"`
	Problems []string `json:"problems,omitempty"`
}
