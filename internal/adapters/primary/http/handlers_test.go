package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
	"github.com/fredcamaral/deckforge/internal/domain/services"
	"github.com/fredcamaral/deckforge/internal/test/builders"
)

const testDeck = `{"title": "Roadmap", "slides": [{"title": "Goals", "content": ["Ship: v2", "Hire"]}]}`

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandleLayouts(t *testing.T) {
	s := newTestServer(t, new(MockDeckCompiler), nil)

	w := do(t, s, http.MethodGet, "/api/layouts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	layouts := decode[[]entities.LayoutDefinition](t, w)
	assert.Len(t, layouts, 9)
}

func TestHandleTheme(t *testing.T) {
	s := newTestServer(t, new(MockDeckCompiler), nil)
	sources := `[{"default": "dark"}, {"colors": {"primary": "#FF0000"}}]`

	t.Run("resolve applies precedence", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/theme/resolve", `{"sources": `+sources+`}`)
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[entities.ThemeResolution](t, w)
		assert.Equal(t, "#FF0000", res.Theme.Primary)
		assert.NotEmpty(t, res.Decisions)
	})

	t.Run("merge honors priority first", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/theme/merge", `{"priority": "first", "sources": `+sources+`}`)
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[entities.ThemeResolution](t, w)
		assert.NotEqual(t, "#FF0000", res.Theme.Primary)
	})

	t.Run("unknown priority", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/theme/merge", `{"priority": "loudest", "sources": `+sources+`}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[ErrorResponse](t, w).Message, "loudest")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/theme/resolve", `{"sources": 12`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleValidate(t *testing.T) {
	s := newTestServer(t, new(MockDeckCompiler), nil)

	t.Run("valid deck", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/validate", testDeck)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[ValidateResponse](t, w)
		assert.True(t, resp.Valid)
		assert.Empty(t, resp.Report.Errors)
	})

	t.Run("invalid deck", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/validate", `{"title": "", "slides": []}`)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[ValidateResponse](t, w)
		assert.False(t, resp.Valid)
		assert.Len(t, resp.Report.Errors, 2)
	})

	t.Run("unknown field is a schema error", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/validate", `{"title": "x", "slidez": []}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[ErrorResponse](t, w).Message, entities.ErrSchema.Error())
	})
}

func TestHandleCompile(t *testing.T) {
	t.Run("compiles into the output directory and broadcasts", func(t *testing.T) {
		compiler := new(MockDeckCompiler)
		s := newTestServer(t, compiler, nil)
		compiler.On("Compile", mock.Anything, mock.MatchedBy(func(spec *entities.DeckSpec) bool {
			return spec.Title == "Roadmap" && spec.Output.Directory == s.opts.OutputDir
		}), mock.Anything).
			Run(func(args mock.Arguments) {
				args.Get(2).(services.ProgressFunc)(entities.ProgressEvent{RunID: "run-1", Stage: entities.StageValidated})
			}).
			Return(&entities.CompileResult{RunID: "run-1", Success: true, ArtifactPath: "/out/roadmap.pdf"}, nil)

		w := do(t, s, http.MethodPost, "/api/compile", testDeck)
		require.Equal(t, http.StatusOK, w.Code)
		result := decode[entities.CompileResult](t, w)
		assert.True(t, result.Success)
		assert.Equal(t, "run-1", result.RunID)

		progress := nextBroadcast(t, s)
		assert.Equal(t, ports.EventTypeProgress, progress.Type)
		assert.Equal(t, entities.StageValidated, progress.Progress.Stage)
		final := nextBroadcast(t, s)
		assert.Equal(t, ports.EventTypeResult, final.Type)
		assert.Equal(t, "run-1", final.Result.RunID)

		compiler.AssertExpectations(t)
	})

	t.Run("client cannot choose the output directory", func(t *testing.T) {
		compiler := new(MockDeckCompiler)
		s := newTestServer(t, compiler, nil)
		compiler.On("Compile", mock.Anything, mock.MatchedBy(func(spec *entities.DeckSpec) bool {
			return spec.Output.Directory == s.opts.OutputDir
		}), mock.Anything).Return(&entities.CompileResult{Success: true}, nil)

		body := `{"title": "x", "output": {"directory": "/etc"}, "slides": [{"title": "a"}]}`
		w := do(t, s, http.MethodPost, "/api/compile", body)
		assert.Equal(t, http.StatusOK, w.Code)
		compiler.AssertExpectations(t)
	})

	t.Run("failures map to status codes", func(t *testing.T) {
		tests := []struct {
			err  error
			want int
		}{
			{fmt.Errorf("%w: no slides", entities.ErrSchema), http.StatusUnprocessableEntity},
			{entities.ErrTemplateMissing, http.StatusUnprocessableEntity},
			{entities.ErrCompileCanceled, http.StatusServiceUnavailable},
			{fmt.Errorf("%w: disk full", entities.ErrOutputWrite), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.err.Error(), func(t *testing.T) {
				compiler := new(MockDeckCompiler)
				s := newTestServer(t, compiler, nil)
				compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).
					Return(&entities.CompileResult{Success: false}, tt.err)

				w := do(t, s, http.MethodPost, "/api/compile", testDeck)
				assert.Equal(t, tt.want, w.Code)
				assert.False(t, decode[entities.CompileResult](t, w).Success)
			})
		}
	})
}

func nextBroadcast(t *testing.T, s *Server) ports.StreamEvent {
	t.Helper()
	select {
	case e := <-s.connMgr.broadcast:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event broadcast")
		return ports.StreamEvent{}
	}
}

func TestHandleCache(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, new(MockDeckCompiler), nil)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/cache/stats", "").Code)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/cache/sweep", "").Code)
	})

	t.Run("stats and sweep", func(t *testing.T) {
		assets := builders.NewStubAssets().WithImage("https://example.com/a.png", 10, 10)
		s := newTestServer(t, new(MockDeckCompiler), assets)

		w := do(t, s, http.MethodGet, "/api/cache/stats", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[entities.CacheStats](t, w).Entries)

		w = do(t, s, http.MethodPost, "/api/cache/sweep", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, SweepResponse{Removed: 0}, decode[SweepResponse](t, w))
	})
}

func TestHandleError_SanitizesServerErrors(t *testing.T) {
	s := newTestServer(t, new(MockDeckCompiler), nil)

	w := httptest.NewRecorder()
	s.handleError(w, errors.New("open /secret/path: permission denied"), http.StatusInternalServerError)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "Internal server error", resp.Message)

	w = httptest.NewRecorder()
	s.handleError(w, errors.New("slide 2: image requires a source"), http.StatusBadRequest)
	assert.Equal(t, "slide 2: image requires a source", decode[ErrorResponse](t, w).Message)
}

func TestHandleHealth(t *testing.T) {
	t.Run("no recorder", func(t *testing.T) {
		s := newTestServer(t, new(MockDeckCompiler), nil)
		w := do(t, s, http.MethodGet, "/api/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decode[entities.HealthReport](t, w).Status)
	})

	tests := []struct {
		name   string
		report entities.HealthReport
		want   int
	}{
		{"healthy", entities.HealthReport{Status: "ok"}, http.StatusOK},
		{"over limits", entities.HealthReport{Status: "degraded", Problems: []string{"goroutines 9000 over 5000"}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := new(MockMetricsRecorder)
			metrics.On("Health").Return(tt.report)
			s := newTestServer(t, new(MockDeckCompiler), nil)
			s.api.Metrics = metrics

			w := do(t, s, http.MethodGet, "/api/health", "")
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.report.Status, decode[entities.HealthReport](t, w).Status)
		})
	}
}

func TestHandleMetrics(t *testing.T) {
	metrics := new(MockMetricsRecorder)
	metrics.On("Snapshot").Return(entities.RuntimeMetrics{Compiles: 3, Failures: 1, Goroutines: 12})
	s := newTestServer(t, new(MockDeckCompiler), nil)
	s.api.Metrics = metrics

	w := do(t, s, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[entities.RuntimeMetrics](t, w)
	assert.Equal(t, int64(3), got.Compiles)
	assert.Equal(t, int64(1), got.Failures)
	metrics.AssertExpectations(t)
}

func TestHandleCompile_ObservesOutcome(t *testing.T) {
	compiler := new(MockDeckCompiler)
	metrics := new(MockMetricsRecorder)
	s := newTestServer(t, compiler, nil)
	s.api.Metrics = metrics

	result := &entities.CompileResult{RunID: "run-7", Success: true}
	compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).Return(result, nil)
	metrics.On("ObserveCompile", result, nil).Once()

	w := do(t, s, http.MethodPost, "/api/compile", testDeck)
	assert.Equal(t, http.StatusOK, w.Code)
	metrics.AssertExpectations(t)
}
