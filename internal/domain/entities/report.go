package entities

import (
	"fmt"
	"sort"
	"time"
)

// Severity is the tier of a diagnostic
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// DiagnosticKind classifies what a diagnostic is about
type DiagnosticKind string

const (
	KindSchema           DiagnosticKind = "schema_error"
	KindTemplateMissing  DiagnosticKind = "template_missing"
	KindOutputWrite      DiagnosticKind = "output_write_failure"
	KindLayoutNotFound   DiagnosticKind = "layout_not_found"
	KindAssetUnreachable DiagnosticKind = "asset_unreachable"
	KindCacheFetch       DiagnosticKind = "cache_fetch_failure"
	KindFontUnmapped     DiagnosticKind = "font_unmapped"
	KindContentOverflow  DiagnosticKind = "content_overflow"
	KindContent          DiagnosticKind = "content"
	KindTheme            DiagnosticKind = "theme"
	KindSuggestion       DiagnosticKind = "suggestion"
	KindCanceled         DiagnosticKind = "canceled"
)

// Fatal reports whether the kind aborts a compile
func (k DiagnosticKind) Fatal() bool {
	switch k {
	case KindSchema, KindTemplateMissing, KindOutputWrite:
		return true
	}
	return false
}

// Diagnostic is one finding. Slide is 1-based; 0 means deck level.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Kind     DiagnosticKind `json:"kind"`
	Slide    int            `json:"slide,omitempty"`
	Message  string         `json:"message"`
	Subject  string         `json:"subject,omitempty"`
}

// About tags the diagnostic with the thing it concerns, such as an image
// source. Diagnostics sharing severity, kind, slide and subject describe the
// same finding whatever their message.
func (d Diagnostic) About(subject string) Diagnostic {
	d.Subject = subject
	return d
}

// String renders the diagnostic with its slide prefix
func (d Diagnostic) String() string {
	if d.Slide > 0 {
		return fmt.Sprintf("Slide %d: %s", d.Slide, d.Message)
	}
	return d.Message
}

// NewError builds an error-tier diagnostic
func NewError(kind DiagnosticKind, slide int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Kind: kind, Slide: slide, Message: fmt.Sprintf(format, args...)}
}

// NewWarning builds a warning-tier diagnostic
func NewWarning(kind DiagnosticKind, slide int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Kind: kind, Slide: slide, Message: fmt.Sprintf(format, args...)}
}

// NewInfo builds an info-tier diagnostic
func NewInfo(kind DiagnosticKind, slide int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Kind: kind, Slide: slide, Message: fmt.Sprintf(format, args...)}
}

// ValidationReport groups diagnostics by severity
type ValidationReport struct {
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
	Info     []Diagnostic `json:"info"`
}

// Add files a diagnostic under its severity
func (r *ValidationReport) Add(d Diagnostic) {
	switch d.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, d)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, d)
	default:
		r.Info = append(r.Info, d)
	}
}

// AddAll files several diagnostics
func (r *ValidationReport) AddAll(ds []Diagnostic) {
	for _, d := range ds {
		r.Add(d)
	}
}

// Merge appends every diagnostic of other
func (r *ValidationReport) Merge(other ValidationReport) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
}

// HasErrors reports whether the report blocks compilation
func (r ValidationReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// Valid is the inverse of HasErrors
func (r ValidationReport) Valid() bool {
	return !r.HasErrors()
}

// SortBySlide orders each tier by slide index, keeping insertion order for ties
func (r *ValidationReport) SortBySlide() {
	for _, tier := range [][]Diagnostic{r.Errors, r.Warnings, r.Info} {
		sort.SliceStable(tier, func(i, j int) bool { return tier[i].Slide < tier[j].Slide })
	}
}

// Count returns the total number of diagnostics
func (r ValidationReport) Count() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Info)
}

// CompileStats summarizes a compile run
type CompileStats struct {
	SourceSlides    int           `json:"source_slides"`
	RenderedSlides  int           `json:"rendered_slides"`
	AssetsFetched   int           `json:"assets_fetched"`
	AssetsFromCache int           `json:"assets_from_cache"`
	Duration        time.Duration `json:"duration"`
}

// CompileResult is the outcome of a compile; it either fully succeeds
// (possibly with warnings) or fully fails with a report
type CompileResult struct {
	RunID        string           `json:"run_id"`
	Success      bool             `json:"success"`
	ArtifactPath string           `json:"artifact_path,omitempty"`
	Stats        CompileStats     `json:"stats"`
	Report       ValidationReport `json:"report"`
}

// ProgressEvent is published while a compile runs
type ProgressEvent struct {
	RunID   string `json:"run_id"`
	Stage   string `json:"stage"`
	Slide   int    `json:"slide,omitempty"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

// Progress stages
const (
	StageValidated    = "validated"
	StageThemeReady   = "theme_resolved"
	StageSlideStarted = "slide_started"
	StageSlideDone    = "slide_done"
	StageWriting      = "writing"
	StageDone         = "done"
	StageFailed       = "failed"
)
