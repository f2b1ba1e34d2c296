package monitoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Limits above which the process reports itself unhealthy
type Limits struct {
	MaxMemoryBytes int64
	MaxGoroutines  int
}

// DefaultLimits returns the health limits used when none are configured
func DefaultLimits() Limits {
	return Limits{MaxMemoryBytes: 1 << 30, MaxGoroutines: 5000}
}

// ewmaAlpha weights the newest compile in the moving average
const ewmaAlpha = 0.1

// Recorder counts compiles and samples runtime memory for the server
type Recorder struct {
	clock  ports.TimeProvider
	limits Limits

	process ProcessSampler

	mu      sync.RWMutex
	metrics entities.RuntimeMetrics
	running bool
	stopCh  chan struct{}
}

// NewRecorder creates a recorder; clock may be nil
func NewRecorder(clock ports.TimeProvider, limits Limits) *Recorder {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if limits.MaxMemoryBytes <= 0 {
		limits.MaxMemoryBytes = DefaultLimits().MaxMemoryBytes
	}
	if limits.MaxGoroutines <= 0 {
		limits.MaxGoroutines = DefaultLimits().MaxGoroutines
	}
	r := &Recorder{
		clock:   clock,
		limits:  limits,
		process: sampleProcess,
		metrics: entities.RuntimeMetrics{StartedAt: clock.Now()},
	}
	r.sample(context.Background())
	return r
}

// Start samples runtime statistics every interval until ctx is done or Stop
func (r *Recorder) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sample interval must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})

	go r.loop(ctx, interval, r.stopCh)
	return nil
}

// Stop stops sampling
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	close(r.stopCh)
}

func (r *Recorder) loop(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			r.sample(ctx)
		}
	}
}

// sample refreshes the memory, goroutine and process figures. A failed
// process read keeps the previous process figures.
func (r *Recorder) sample(ctx context.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var proc ProcessStats
	var procErr error
	if r.process != nil {
		proc, procErr = r.process(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.MemoryBytes = clampInt64(mem.Alloc)
	r.metrics.HeapBytes = clampInt64(mem.HeapAlloc)
	r.metrics.GCCycles = mem.NumGC
	r.metrics.Goroutines = runtime.NumGoroutine()
	if r.process != nil && procErr == nil {
		r.metrics.ResidentBytes = proc.ResidentBytes
		r.metrics.CPUPercent = proc.CPUPercent
		r.metrics.Load1 = proc.Load1
	}
}

// memoryInUse prefers the resident set size over the Go allocator's view
func memoryInUse(m entities.RuntimeMetrics) int64 {
	if m.ResidentBytes > 0 {
		return m.ResidentBytes
	}
	return m.MemoryBytes
}

// ObserveCompile records the outcome of one compile
func (r *Recorder) ObserveCompile(result *entities.CompileResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := &r.metrics
	m.Compiles++
	m.LastCompileAt = r.clock.Now()
	switch {
	case errors.Is(err, entities.ErrCompileCanceled):
		m.Canceled++
	case err != nil || result == nil || !result.Success:
		m.Failures++
	}
	if result == nil {
		return
	}

	m.SlidesRendered += int64(result.Stats.RenderedSlides)
	ms := float64(result.Stats.Duration) / float64(time.Millisecond)
	if m.Compiles == 1 {
		m.AverageCompileMs = ms
	} else {
		m.AverageCompileMs = m.AverageCompileMs*(1-ewmaAlpha) + ms*ewmaAlpha
	}
}

// ObserveStream records a websocket session
func (r *Recorder) ObserveStream() {
	r.mu.Lock()
	r.metrics.StreamSessions++
	r.mu.Unlock()
}

// Snapshot returns a copy of the current metrics
func (r *Recorder) Snapshot() entities.RuntimeMetrics {
	r.mu.RLock()
	m := r.metrics
	r.mu.RUnlock()

	m.UptimeSeconds = int64(r.clock.Since(m.StartedAt) / time.Second)
	return m
}

// Health checks the latest sample against the limits
func (r *Recorder) Health() entities.HealthReport {
	m := r.Snapshot()

	var problems []string
	if used := memoryInUse(m); used > r.limits.MaxMemoryBytes {
		problems = append(problems, fmt.Sprintf("memory %d MB above limit %d MB",
			used>>20, r.limits.MaxMemoryBytes>>20))
	}
	if m.Goroutines > r.limits.MaxGoroutines {
		problems = append(problems, fmt.Sprintf("%d goroutines above limit %d", m.Goroutines, r.limits.MaxGoroutines))
	}
	if len(problems) > 0 {
		return entities.HealthReport{Status: "degraded", Problems: problems}
	}
	return entities.HealthReport{Status: "ok"}
}

// clampInt64 converts a counter, capping at the largest int64
func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

var _ ports.MetricsRecorder = (*Recorder)(nil)
