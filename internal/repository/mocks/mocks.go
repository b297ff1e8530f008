package mocks

import (
	"context"

	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/stretchr/testify/mock"
)

// PluginRepository is a mock for plugin.Repository.
type PluginRepository struct {
	mock.Mock
}

func (m *PluginRepository) AddSearchPath(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *PluginRepository) ListSearchPaths(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PluginRepository) CreatePlugin(ctx context.Context, name string) (*plugin.Plugin, error) {
	args := m.Called(ctx, name)
	if p, ok := args.Get(0).(*plugin.Plugin); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PluginRepository) GetPlugin(ctx context.Context, id plugin.PluginID) (*plugin.Plugin, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*plugin.Plugin); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PluginRepository) GetPluginByName(ctx context.Context, name string) (*plugin.Plugin, error) {
	args := m.Called(ctx, name)
	if p, ok := args.Get(0).(*plugin.Plugin); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PluginRepository) ListPlugins(ctx context.Context) ([]plugin.Plugin, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]plugin.Plugin); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PluginRepository) CreateProgram(ctx context.Context, pluginID plugin.PluginID, name string) (*plugin.Program, error) {
	args := m.Called(ctx, pluginID, name)
	if p, ok := args.Get(0).(*plugin.Program); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PluginRepository) GetProgram(ctx context.Context, pluginID plugin.PluginID, id plugin.ProgramID) (*plugin.Program, error) {
	args := m.Called(ctx, pluginID, id)
	if p, ok := args.Get(0).(*plugin.Program); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PluginRepository) ListPrograms(ctx context.Context, pluginID plugin.PluginID) ([]plugin.Program, error) {
	args := m.Called(ctx, pluginID)
	if list, ok := args.Get(0).([]plugin.Program); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, sessionID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, sessionID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, sessionID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, sessionID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// LoopRepository is a mock for archive.Repository.
type LoopRepository struct {
	mock.Mock
}

func (m *LoopRepository) Save(ctx context.Context, loop *archive.Loop) error {
	args := m.Called(ctx, loop)
	return args.Error(0)
}

func (m *LoopRepository) List(ctx context.Context, opts archive.ListOptions) ([]archive.Loop, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]archive.Loop); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
