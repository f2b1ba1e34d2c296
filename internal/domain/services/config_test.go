package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

type MockConfigLoader struct {
	mock.Mock
}

func (m *MockConfigLoader) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Config), args.Error(1)
}

func (m *MockConfigLoader) LoadLocal(ctx context.Context, dir string) (*entities.Config, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Config), args.Error(1)
}

func (m *MockConfigLoader) CreateDefaults(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockConfigLoader) GetGlobalPath() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfigLoader) GetLocalPath(dir string) string {
	args := m.Called(dir)
	return args.String(0)
}

type MockConfigMerger struct {
	mock.Mock
}

func (m *MockConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	args := m.Called(configs)
	return args.Get(0).(*entities.Config)
}

func (m *MockConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	args := m.Called(config, flags)
	return args.Get(0).(*entities.Config)
}

func (m *MockConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	args := m.Called(config)
	return args.Get(0).(*entities.Config)
}

func testConfig(port int, theme string) *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{Host: "localhost", Port: port},
		Theme:  entities.ThemeConfig{Default: theme},
		Output: entities.OutputConfig{Format: entities.FormatPDF},
	}
}

func TestNewConfigService(t *testing.T) {
	loader := &MockConfigLoader{}
	merger := &MockConfigMerger{}

	service := NewConfigService(loader, merger, nil)

	require.NotNil(t, service)
	assert.Equal(t, loader, service.loader)
	assert.Equal(t, merger, service.merger)
	assert.NotNil(t, service.logger)
}

func TestConfigService_LoadConfig(t *testing.T) {
	t.Run("layers defaults, global, local, env and flags", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}

		defaults := testConfig(8085, "default")
		global := testConfig(9000, "corporate")
		local := testConfig(9100, "dark")
		merged := testConfig(9100, "dark")
		withEnv := testConfig(9200, "dark")
		final := testConfig(9300, "dark")
		flags := map[string]interface{}{"port": 9300}

		merger.On("Merge", []*entities.Config(nil)).Return(defaults).Once()
		loader.On("LoadGlobal", mock.Anything).Return(global, nil)
		loader.On("LoadLocal", mock.Anything, "/decks").Return(local, nil)
		loader.On("GetLocalPath", "/decks").Return("/decks/deckforge.toml")
		merger.On("Merge", mock.MatchedBy(func(configs []*entities.Config) bool {
			return len(configs) == 3 && configs[2] == local
		})).Return(merged)
		merger.On("ApplyEnvVars", merged).Return(withEnv)
		merger.On("ApplyFlags", withEnv, flags).Return(final)

		service := NewConfigService(loader, merger, nil)
		result, err := service.LoadConfig(context.Background(), "/decks", flags)

		require.NoError(t, err)
		assert.Equal(t, final, result)
		loader.AssertExpectations(t)
		merger.AssertExpectations(t)
	})

	t.Run("missing local config is skipped", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}
		final := testConfig(8085, "default")

		merger.On("Merge", []*entities.Config(nil)).Return(testConfig(8085, "default")).Once()
		loader.On("LoadGlobal", mock.Anything).Return(testConfig(8085, "default"), nil)
		loader.On("LoadLocal", mock.Anything, "/decks").Return(nil, nil)
		merger.On("Merge", mock.MatchedBy(func(configs []*entities.Config) bool {
			return len(configs) == 2
		})).Return(final)
		merger.On("ApplyEnvVars", final).Return(final)
		merger.On("ApplyFlags", final, map[string]interface{}(nil)).Return(final)

		service := NewConfigService(loader, merger, nil)
		result, err := service.LoadConfig(context.Background(), "/decks", nil)

		require.NoError(t, err)
		assert.Equal(t, final, result)
		loader.AssertNotCalled(t, "GetLocalPath", mock.Anything)
	})

	t.Run("global load error", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}
		merger.On("Merge", mock.Anything).Return(&entities.Config{})
		loader.On("LoadGlobal", mock.Anything).Return(nil, errors.New("permission denied"))

		_, err := NewConfigService(loader, merger, nil).LoadConfig(context.Background(), "/decks", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading global config")
	})

	t.Run("local load error", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}
		merger.On("Merge", mock.Anything).Return(&entities.Config{})
		loader.On("LoadGlobal", mock.Anything).Return(&entities.Config{}, nil)
		loader.On("LoadLocal", mock.Anything, "/decks").Return(nil, errors.New("bad toml"))

		_, err := NewConfigService(loader, merger, nil).LoadConfig(context.Background(), "/decks", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading local config")
	})

	t.Run("invalid final config", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}
		merger.On("Merge", mock.Anything).Return(&entities.Config{})
		merger.On("ApplyEnvVars", mock.Anything).Return(&entities.Config{})
		merger.On("ApplyFlags", mock.Anything, mock.Anything).Return(&entities.Config{
			Output: entities.OutputConfig{Format: "docx"},
		})
		loader.On("LoadGlobal", mock.Anything).Return(&entities.Config{}, nil)
		loader.On("LoadLocal", mock.Anything, "/decks").Return(nil, nil)

		_, err := NewConfigService(loader, merger, nil).LoadConfig(context.Background(), "/decks", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "final config validation")
	})
}

func TestConfigService_ValidateConfig(t *testing.T) {
	service := NewConfigService(&MockConfigLoader{}, &MockConfigMerger{}, nil)

	assert.NoError(t, service.ValidateConfig(testConfig(8085, "corporate")))
	assert.ErrorContains(t, service.ValidateConfig(nil), "config cannot be nil")
	assert.Error(t, service.ValidateConfig(testConfig(-1, "default")))
}

func TestConfigService_CreateGlobalConfig(t *testing.T) {
	t.Run("writes defaults to the global path", func(t *testing.T) {
		loader := &MockConfigLoader{}
		loader.On("GetGlobalPath").Return("/home/user/.config/deckforge/config.toml")
		loader.On("CreateDefaults", mock.Anything, "/home/user/.config/deckforge/config.toml").Return(nil)

		err := NewConfigService(loader, &MockConfigMerger{}, nil).CreateGlobalConfig(context.Background())

		assert.NoError(t, err)
		loader.AssertExpectations(t)
	})

	t.Run("propagates write errors", func(t *testing.T) {
		loader := &MockConfigLoader{}
		failure := errors.New("permission denied")
		loader.On("GetGlobalPath").Return("/readonly/config.toml")
		loader.On("CreateDefaults", mock.Anything, "/readonly/config.toml").Return(failure)

		err := NewConfigService(loader, &MockConfigMerger{}, nil).CreateGlobalConfig(context.Background())

		assert.Equal(t, failure, err)
	})
}
