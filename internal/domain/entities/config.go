package entities

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Cache     CacheConfig     `toml:"cache"`
	Validator ValidatorConfig `toml:"validator"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Theme     ThemeConfig     `toml:"theme"`
	Output    OutputConfig    `toml:"output"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Validator.Validate(); err != nil {
		return fmt.Errorf("validator config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Theme.Validate(); err != nil {
		return fmt.Errorf("theme config: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// CacheConfig contains asset cache configuration
type CacheConfig struct {
	Dir            string `toml:"dir"`
	TTLHours       int    `toml:"ttl_hours"`
	Index          string `toml:"index"` // sqlite or memory
	MaxImageWidth  int    `toml:"max_image_width"`
	MaxImageHeight int    `toml:"max_image_height"`
	FetchTimeoutMs int    `toml:"fetch_timeout_ms"`
}

// Validate validates cache configuration
func (c CacheConfig) Validate() error {
	if c.TTLHours < 0 {
		return errors.New("cache ttl must be non-negative")
	}

	switch c.Index {
	case "", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid cache index: %s (must be sqlite or memory)", c.Index)
	}

	if c.MaxImageWidth < 0 || c.MaxImageHeight < 0 {
		return errors.New("max image dimensions must be non-negative")
	}

	if c.FetchTimeoutMs < 0 {
		return errors.New("fetch timeout must be non-negative")
	}

	return nil
}

// GetTTL returns the cache time-to-live as a duration
func (c CacheConfig) GetTTL() time.Duration {
	if c.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TTLHours) * time.Hour
}

// GetFetchTimeout returns the per-asset fetch timeout
func (c CacheConfig) GetFetchTimeout() time.Duration {
	if c.FetchTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}

// GetMaxImageSize returns the bounding box used when downscaling rasters
func (c CacheConfig) GetMaxImageSize() (int, int) {
	w, h := c.MaxImageWidth, c.MaxImageHeight
	if w <= 0 {
		w = 1920
	}
	if h <= 0 {
		h = 1080
	}
	return w, h
}

// ValidatorConfig contains validation configuration
type ValidatorConfig struct {
	SkipProbes       bool `toml:"skip_probes"`
	ProbeConcurrency int  `toml:"probe_concurrency"`
	ProbeTimeoutMs   int  `toml:"probe_timeout_ms"`
}

// ProbesEnabled reports whether remote assets are HEAD-probed during validation
func (v ValidatorConfig) ProbesEnabled() bool {
	return !v.SkipProbes
}

// Validate validates validator configuration
func (v ValidatorConfig) Validate() error {
	if v.ProbeConcurrency < 0 {
		return errors.New("probe concurrency must be non-negative")
	}

	if v.ProbeTimeoutMs < 0 {
		return errors.New("probe timeout must be non-negative")
	}

	return nil
}

// GetProbeConcurrency returns the probe concurrency with default
func (v ValidatorConfig) GetProbeConcurrency() int {
	if v.ProbeConcurrency <= 0 {
		return 8
	}
	return v.ProbeConcurrency
}

// GetProbeTimeout returns the per-probe timeout as a duration
func (v ValidatorConfig) GetProbeTimeout() time.Duration {
	if v.ProbeTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(v.ProbeTimeoutMs) * time.Millisecond
}

// PipelineConfig contains content pipeline configuration
type PipelineConfig struct {
	CodeLinesPerSlide int `toml:"code_lines_per_slide"`
	PaletteSteps      int `toml:"palette_steps"`
	Workers           int `toml:"workers"`
}

// Validate validates pipeline configuration
func (p PipelineConfig) Validate() error {
	if p.CodeLinesPerSlide < 0 {
		return errors.New("code lines per slide must be non-negative")
	}

	if p.PaletteSteps < 0 || p.PaletteSteps > 21 {
		return errors.New("palette steps must be between 0 and 21")
	}

	if p.Workers < 0 {
		return errors.New("workers must be non-negative")
	}

	return nil
}

// GetCodeLinesPerSlide returns K, the maximum code lines on one slide
func (p PipelineConfig) GetCodeLinesPerSlide() int {
	if p.CodeLinesPerSlide <= 0 {
		return 15
	}
	return p.CodeLinesPerSlide
}

// GetPaletteSteps returns the palette size, always odd
func (p PipelineConfig) GetPaletteSteps() int {
	n := p.PaletteSteps
	if n <= 0 {
		n = 5
	}
	if n%2 == 0 {
		n++
	}
	return n
}

// GetWorkers returns the number of slide workers
func (p PipelineConfig) GetWorkers() int {
	if p.Workers <= 0 {
		return 4
	}
	return p.Workers
}

// ThemeConfig contains theme configuration
type ThemeConfig struct {
	Default      string `toml:"default"`
	DarkMode     bool   `toml:"dark_mode"`
	TemplatesDir string `toml:"templates_dir"`
}

// Validate validates theme configuration
func (t ThemeConfig) Validate() error {
	if t.Default != "" && !IsNamedDefault(t.Default) {
		return fmt.Errorf("unknown default theme: %s", t.Default)
	}
	return nil
}

// GetDefault returns the named default theme
func (t ThemeConfig) GetDefault() string {
	if t.Default == "" {
		return DefaultThemeName
	}
	return t.Default
}

// OutputConfig contains artifact output configuration
type OutputConfig struct {
	Directory string `toml:"directory"`
	Format    string `toml:"format"`
}

// Validate validates output configuration
func (o OutputConfig) Validate() error {
	if o.Format != "" && !IsSupportedFormat(o.Format) {
		return fmt.Errorf("unsupported output format: %s", o.Format)
	}
	return nil
}

// GetFormat returns the output format with default
func (o OutputConfig) GetFormat() string {
	if o.Format == "" {
		return FormatPDF
	}
	return strings.ToLower(o.Format)
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.Host != "" {
		if ip := net.ParseIP(s.Host); ip == nil && s.Host != "localhost" {
			return fmt.Errorf("invalid host: %s", s.Host)
		}
	}

	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return errors.New("server timeouts must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration.
// Compiles run inside the request, so the default is generous.
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetCORSOrigins returns CORS origins with defaults if empty
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:8085",
			"http://127.0.0.1:8085",
		}
	}
	return s.CORSOrigins
}

// LogLevel represents logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`       // debug, info, warn, error
	JSONFormat bool   `toml:"json_format"` // Output logs in JSON format
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	case "":
		// Empty is okay, will use default
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}
	return nil
}

// GetLevel returns the log level with default
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}
