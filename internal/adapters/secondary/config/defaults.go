package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// DefaultCacheDir returns the asset cache root under the user cache directory
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "deckforge", "assets")
	}
	return filepath.Join(os.TempDir(), "deckforge", "assets")
}

// GetDefaultConfig returns the default configuration with environment overrides
func GetDefaultConfig() *entities.Config {
	return &entities.Config{
		Cache: entities.CacheConfig{
			Dir:            getEnvOrDefault("DECKFORGE_CACHE_DIR", DefaultCacheDir()),
			TTLHours:       getEnvIntOrDefault("DECKFORGE_CACHE_TTL_HOURS", 24),
			Index:          getEnvOrDefault("DECKFORGE_CACHE_INDEX", "sqlite"),
			MaxImageWidth:  1920,
			MaxImageHeight: 1080,
			FetchTimeoutMs: getEnvIntOrDefault("DECKFORGE_FETCH_TIMEOUT_MS", 30000),
		},
		Validator: entities.ValidatorConfig{
			SkipProbes:       getEnvBoolOrDefault("DECKFORGE_SKIP_PROBES", false),
			ProbeConcurrency: getEnvIntOrDefault("DECKFORGE_PROBE_CONCURRENCY", 8),
			ProbeTimeoutMs:   getEnvIntOrDefault("DECKFORGE_PROBE_TIMEOUT_MS", 5000),
		},
		Pipeline: entities.PipelineConfig{
			CodeLinesPerSlide: getEnvIntOrDefault("DECKFORGE_CODE_LINES", 15),
			PaletteSteps:      5,
			Workers:           getEnvIntOrDefault("DECKFORGE_WORKERS", 4),
		},
		Theme: entities.ThemeConfig{
			Default:      getEnvOrDefault("DECKFORGE_THEME", entities.DefaultThemeName),
			DarkMode:     getEnvBoolOrDefault("DECKFORGE_DARK_MODE", false),
			TemplatesDir: getEnvOrDefault("DECKFORGE_TEMPLATES_DIR", "templates"),
		},
		Output: entities.OutputConfig{
			Directory: getEnvOrDefault("DECKFORGE_OUTPUT_DIR", "output"),
			Format:    getEnvOrDefault("DECKFORGE_FORMAT", entities.FormatPDF),
		},
		Server: entities.ServerConfig{
			Host:            getEnvOrDefault("DECKFORGE_HOST", "localhost"),
			Port:            getEnvIntOrDefault("DECKFORGE_PORT", 8085),
			ReadTimeout:     30,
			WriteTimeout:    300,
			ShutdownTimeout: 5,
			CORSOrigins: getEnvSliceOrDefault("DECKFORGE_CORS_ORIGINS", []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			}),
		},
		Logging: entities.LoggingConfig{
			Level:      getEnvOrDefault("DECKFORGE_LOG_LEVEL", "info"),
			JSONFormat: getEnvBoolOrDefault("DECKFORGE_LOG_JSON", false),
		},
	}
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSliceOrDefault splits a comma-separated environment variable
func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
