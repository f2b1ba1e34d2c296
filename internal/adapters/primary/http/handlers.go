package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fredcamaral/deckforge/internal/adapters/secondary/deckfile"
	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// maxBodyBytes bounds request documents
const maxBodyBytes = 10 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ValidateResponse is the body of POST /api/validate
type ValidateResponse struct {
	Valid  bool                      `json:"valid"`
	Report entities.ValidationReport `json:"report"`
}

// SweepResponse is the body of POST /api/cache/sweep
type SweepResponse struct {
	Removed int `json:"removed"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.api.Metrics == nil {
		s.writeJSON(w, http.StatusOK, entities.HealthReport{Status: "ok"})
		return
	}
	report := s.api.Metrics.Health()
	status := http.StatusOK
	if len(report.Problems) > 0 {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, report)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.api.Metrics == nil {
		s.handleError(w, errors.New("metrics disabled"), http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, s.api.Metrics.Snapshot())
}

// observeCompile feeds a compile outcome to the metrics recorder
func (s *Server) observeCompile(result *entities.CompileResult, err error) {
	if s.api.Metrics != nil {
		s.api.Metrics.ObserveCompile(result, err)
	}
}

func (s *Server) handleLayouts(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.api.Layouts.Catalog())
}

// handleThemeResolve resolves sources with the default precedence
func (s *Server) handleThemeResolve(w http.ResponseWriter, r *http.Request) {
	s.mergeThemes(w, r, entities.PriorityBalanced)
}

// handleThemeMerge merges sources with the priority named in the body
func (s *Server) handleThemeMerge(w http.ResponseWriter, r *http.Request) {
	s.mergeThemes(w, r, "")
}

func (s *Server) mergeThemes(w http.ResponseWriter, r *http.Request, forced entities.MergePriority) {
	body, err := readBody(w, r)
	if err != nil {
		s.handleError(w, err, http.StatusBadRequest)
		return
	}
	sources, priority, err := deckfile.DecodeThemeRequest(body, s.opts.BaseDir)
	if err != nil {
		s.handleError(w, err, http.StatusBadRequest)
		return
	}
	if forced != "" {
		priority = forced
	}

	resolution, err := s.api.Themes.Merge(sources, priority)
	if err != nil {
		s.handleError(w, err, http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, resolution)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeDeck(w, r)
	if !ok {
		return
	}
	report := s.api.Validator.Validate(r.Context(), spec)
	s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: !report.HasErrors(), Report: report})
}

// handleCompile compiles a deck into the server's output directory and
// publishes progress to websocket clients
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeDeck(w, r)
	if !ok {
		return
	}
	spec.Output.Directory = s.opts.OutputDir

	result, err := s.api.Compiler.Compile(r.Context(), spec, func(e entities.ProgressEvent) {
		s.connMgr.Broadcast(progressEvent(e))
	})
	s.observeCompile(result, err)
	if result != nil {
		s.connMgr.Broadcast(resultEvent(result))
	}
	if err != nil {
		s.logger.Warn("compile failed", slog.String("error", err.Error()))
	}
	s.writeJSON(w, compileStatus(err), result)
}

// compileStatus maps a compile error onto a response status
func compileStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, entities.ErrSchema), errors.Is(err, entities.ErrTemplateMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entities.ErrCompileCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	if s.api.Cache == nil {
		s.handleError(w, errors.New("asset cache disabled"), http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, s.api.Cache.Stats())
}

func (s *Server) handleCacheSweep(w http.ResponseWriter, r *http.Request) {
	if s.api.Cache == nil {
		s.handleError(w, errors.New("asset cache disabled"), http.StatusServiceUnavailable)
		return
	}
	removed, err := s.api.Cache.Sweep(r.Context())
	if err != nil {
		s.handleError(w, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, SweepResponse{Removed: removed})
}

func (s *Server) decodeDeck(w http.ResponseWriter, r *http.Request) (*entities.DeckSpec, bool) {
	body, err := readBody(w, r)
	if err != nil {
		s.handleError(w, err, http.StatusBadRequest)
		return nil, false
	}
	spec, err := deckfile.DecodeDeck(body, s.opts.BaseDir)
	if err != nil {
		s.handleError(w, err, http.StatusBadRequest)
		return nil, false
	}
	return spec, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return body, nil
}

func progressEvent(e entities.ProgressEvent) ports.StreamEvent {
	return ports.StreamEvent{Type: ports.EventTypeProgress, Timestamp: time.Now(), Progress: &e}
}

func resultEvent(result *entities.CompileResult) ports.StreamEvent {
	return ports.StreamEvent{Type: ports.EventTypeResult, Timestamp: time.Now(), Result: result}
}

// handleError writes an error response. Client errors carry the error
// text; server errors are sanitized.
func (s *Server) handleError(w http.ResponseWriter, err error, status int) {
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		message = "Internal server error"
	}

	s.logger.Error("request failed", slog.Int("status", status), slog.String("error", err.Error()))

	s.writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
