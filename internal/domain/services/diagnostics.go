package services

import (
	"sync"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// DiagnosticsCollector accumulates diagnostics from concurrent slide workers.
// A diagnostic identical to one already recorded is dropped, as is one whose
// subject matches an earlier finding of the same severity, kind and slide, so
// findings raised by both validation and rendering appear once.
type DiagnosticsCollector struct {
	mu     sync.Mutex
	seen   map[entities.Diagnostic]struct{}
	report entities.ValidationReport
}

// NewDiagnosticsCollector creates a collector seeded with an existing report
func NewDiagnosticsCollector(seed entities.ValidationReport) *DiagnosticsCollector {
	c := &DiagnosticsCollector{seen: make(map[entities.Diagnostic]struct{})}
	c.Add(seed.Errors...)
	c.Add(seed.Warnings...)
	c.Add(seed.Info...)
	return c
}

// Add records diagnostics
func (c *DiagnosticsCollector) Add(ds ...entities.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range ds {
		key := dedupKey(d)
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		c.report.Add(d)
	}
}

func dedupKey(d entities.Diagnostic) entities.Diagnostic {
	if d.Subject != "" {
		d.Message = ""
	}
	return d
}

// Report returns a copy of the accumulated report ordered by slide
func (c *DiagnosticsCollector) Report() entities.ValidationReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := entities.ValidationReport{
		Errors:   append([]entities.Diagnostic(nil), c.report.Errors...),
		Warnings: append([]entities.Diagnostic(nil), c.report.Warnings...),
		Info:     append([]entities.Diagnostic(nil), c.report.Info...),
	}
	out.SortBySlide()
	return out
}
