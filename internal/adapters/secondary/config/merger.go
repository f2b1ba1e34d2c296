package config

import (
	"os"
	"strconv"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// ConfigMerger layers configurations field by field; zero values never override
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Merge merges configurations with later configs taking precedence
func (m *ConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	if len(configs) == 0 || configs[0] == nil {
		result := GetDefaultConfig()
		for _, c := range configs {
			if c != nil {
				m.mergeInto(result, c)
			}
		}
		return result
	}

	result := deepCopy(configs[0])
	for i := 1; i < len(configs); i++ {
		if configs[i] != nil {
			m.mergeInto(result, configs[i])
		}
	}
	return result
}

// ApplyFlags applies CLI flag overrides to a configuration
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if dir, ok := flags["output"].(string); ok && dir != "" {
		result.Output.Directory = dir
	}

	if format, ok := flags["format"].(string); ok && format != "" {
		result.Output.Format = format
	}

	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}

	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}

	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		result.Pipeline.Workers = workers
	}

	if dir, ok := flags["cache-dir"].(string); ok && dir != "" {
		result.Cache.Dir = dir
	}

	if noProbe, ok := flags["no-probe"].(bool); ok && noProbe {
		result.Validator.SkipProbes = true
	}

	if dark, ok := flags["dark-mode"].(bool); ok && dark {
		result.Theme.DarkMode = true
	}

	if theme, ok := flags["theme"].(string); ok && theme != "" {
		result.Theme.Default = theme
	}

	if level, ok := flags["log-level"].(string); ok && level != "" {
		result.Logging.Level = level
	}

	return result
}

// ApplyEnvVars applies DECKFORGE_* environment overrides to a configuration
func (m *ConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	result := deepCopy(config)

	if dir := os.Getenv("DECKFORGE_CACHE_DIR"); dir != "" {
		result.Cache.Dir = dir
	}

	if index := os.Getenv("DECKFORGE_CACHE_INDEX"); index != "" {
		result.Cache.Index = index
	}

	if v, ok := envInt("DECKFORGE_CACHE_TTL_HOURS"); ok {
		result.Cache.TTLHours = v
	}

	if v, ok := envInt("DECKFORGE_FETCH_TIMEOUT_MS"); ok {
		result.Cache.FetchTimeoutMs = v
	}

	if v := os.Getenv("DECKFORGE_SKIP_PROBES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			result.Validator.SkipProbes = b
		}
	}

	if v, ok := envInt("DECKFORGE_PROBE_CONCURRENCY"); ok {
		result.Validator.ProbeConcurrency = v
	}

	if v, ok := envInt("DECKFORGE_PROBE_TIMEOUT_MS"); ok {
		result.Validator.ProbeTimeoutMs = v
	}

	if v, ok := envInt("DECKFORGE_CODE_LINES"); ok {
		result.Pipeline.CodeLinesPerSlide = v
	}

	if v, ok := envInt("DECKFORGE_WORKERS"); ok {
		result.Pipeline.Workers = v
	}

	if theme := os.Getenv("DECKFORGE_THEME"); theme != "" {
		result.Theme.Default = theme
	}

	if v := os.Getenv("DECKFORGE_DARK_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			result.Theme.DarkMode = b
		}
	}

	if dir := os.Getenv("DECKFORGE_TEMPLATES_DIR"); dir != "" {
		result.Theme.TemplatesDir = dir
	}

	if dir := os.Getenv("DECKFORGE_OUTPUT_DIR"); dir != "" {
		result.Output.Directory = dir
	}

	if format := os.Getenv("DECKFORGE_FORMAT"); format != "" {
		result.Output.Format = format
	}

	if host := os.Getenv("DECKFORGE_HOST"); host != "" {
		result.Server.Host = host
	}

	if port, ok := envInt("DECKFORGE_PORT"); ok && port > 0 {
		result.Server.Port = port
	}

	if origins := getEnvSliceOrDefault("DECKFORGE_CORS_ORIGINS", nil); len(origins) > 0 {
		result.Server.CORSOrigins = origins
	}

	if level := os.Getenv("DECKFORGE_LOG_LEVEL"); level != "" {
		result.Logging.Level = level
	}

	if v := os.Getenv("DECKFORGE_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			result.Logging.JSONFormat = b
		}
	}

	return result
}

// mergeInto copies every non-zero field of source onto target
func (m *ConfigMerger) mergeInto(target, source *entities.Config) {
	if source.Cache.Dir != "" {
		target.Cache.Dir = source.Cache.Dir
	}
	if source.Cache.TTLHours != 0 {
		target.Cache.TTLHours = source.Cache.TTLHours
	}
	if source.Cache.Index != "" {
		target.Cache.Index = source.Cache.Index
	}
	if source.Cache.MaxImageWidth != 0 {
		target.Cache.MaxImageWidth = source.Cache.MaxImageWidth
	}
	if source.Cache.MaxImageHeight != 0 {
		target.Cache.MaxImageHeight = source.Cache.MaxImageHeight
	}
	if source.Cache.FetchTimeoutMs != 0 {
		target.Cache.FetchTimeoutMs = source.Cache.FetchTimeoutMs
	}

	if source.Validator.SkipProbes {
		target.Validator.SkipProbes = true
	}
	if source.Validator.ProbeConcurrency != 0 {
		target.Validator.ProbeConcurrency = source.Validator.ProbeConcurrency
	}
	if source.Validator.ProbeTimeoutMs != 0 {
		target.Validator.ProbeTimeoutMs = source.Validator.ProbeTimeoutMs
	}

	if source.Pipeline.CodeLinesPerSlide != 0 {
		target.Pipeline.CodeLinesPerSlide = source.Pipeline.CodeLinesPerSlide
	}
	if source.Pipeline.PaletteSteps != 0 {
		target.Pipeline.PaletteSteps = source.Pipeline.PaletteSteps
	}
	if source.Pipeline.Workers != 0 {
		target.Pipeline.Workers = source.Pipeline.Workers
	}

	if source.Theme.Default != "" {
		target.Theme.Default = source.Theme.Default
	}
	if source.Theme.DarkMode {
		target.Theme.DarkMode = true
	}
	if source.Theme.TemplatesDir != "" {
		target.Theme.TemplatesDir = source.Theme.TemplatesDir
	}

	if source.Output.Directory != "" {
		target.Output.Directory = source.Output.Directory
	}
	if source.Output.Format != "" {
		target.Output.Format = source.Output.Format
	}

	if source.Server.Host != "" {
		target.Server.Host = source.Server.Host
	}
	if source.Server.Port != 0 {
		target.Server.Port = source.Server.Port
	}
	if source.Server.ReadTimeout != 0 {
		target.Server.ReadTimeout = source.Server.ReadTimeout
	}
	if source.Server.WriteTimeout != 0 {
		target.Server.WriteTimeout = source.Server.WriteTimeout
	}
	if source.Server.ShutdownTimeout != 0 {
		target.Server.ShutdownTimeout = source.Server.ShutdownTimeout
	}
	if len(source.Server.CORSOrigins) > 0 {
		target.Server.CORSOrigins = append([]string(nil), source.Server.CORSOrigins...)
	}

	if source.Logging.Level != "" {
		target.Logging.Level = source.Logging.Level
	}
	if source.Logging.JSONFormat {
		target.Logging.JSONFormat = true
	}
}

// deepCopy creates a deep copy of a configuration
func deepCopy(config *entities.Config) *entities.Config {
	if config == nil {
		return nil
	}
	result := *config
	if config.Server.CORSOrigins != nil {
		result.Server.CORSOrigins = append([]string(nil), config.Server.CORSOrigins...)
	}
	return &result
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

var _ ports.ConfigMerger = (*ConfigMerger)(nil)
