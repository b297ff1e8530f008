package plugin

import "context"

// Repository provides persistence for the plugin catalog.
type Repository interface {
	AddSearchPath(ctx context.Context, path string) error
	ListSearchPaths(ctx context.Context) ([]string, error)
	CreatePlugin(ctx context.Context, name string) (*Plugin, error)
	GetPlugin(ctx context.Context, id PluginID) (*Plugin, error)
	GetPluginByName(ctx context.Context, name string) (*Plugin, error)
	ListPlugins(ctx context.Context) ([]Plugin, error)
	CreateProgram(ctx context.Context, pluginID PluginID, name string) (*Program, error)
	GetProgram(ctx context.Context, pluginID PluginID, id ProgramID) (*Program, error)
	ListPrograms(ctx context.Context, pluginID PluginID) ([]Program, error)
}
