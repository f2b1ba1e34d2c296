package ports

import (
	"context"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// ConfigLoader reads configuration layers from disk
type ConfigLoader interface {
	// LoadGlobal reads the per-user file, creating it with defaults when absent
	LoadGlobal(ctx context.Context) (*entities.Config, error)

	// LoadLocal reads the file next to a deck; nil when the directory has none
	LoadLocal(ctx context.Context, dir string) (*entities.Config, error)

	CreateDefaults(ctx context.Context, path string) error
	GetGlobalPath() string
	GetLocalPath(dir string) string
}

// ConfigMerger combines configuration layers
type ConfigMerger interface {
	// Merge layers configs left to right; with no arguments it returns defaults
	Merge(configs ...*entities.Config) *entities.Config
	ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config
	ApplyEnvVars(config *entities.Config) *entities.Config
}

// ConfigService resolves the effective configuration for a command
type ConfigService interface {
	LoadConfig(ctx context.Context, workingDir string, flags map[string]interface{}) (*entities.Config, error)
	GetDefaultConfig() *entities.Config
	ValidateConfig(config *entities.Config) error
	CreateGlobalConfig(ctx context.Context) error
}
