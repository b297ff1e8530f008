package plugin_test

import (
	"context"
	"testing"

	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/repository"
	"github.com/rpggio/nowloop/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestPluginService_RegisterPlugin_NewAndExisting(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.PluginRepository{}

	repo.On("GetPluginByName", ctx, "Reverb").Return(nil, repository.ErrNotFound).Once()
	repo.On("CreatePlugin", ctx, "Reverb").Return(&plugin.Plugin{ID: 1, Name: "Reverb"}, nil).Once()
	repo.On("GetPluginByName", ctx, "Reverb").Return(&plugin.Plugin{ID: 1, Name: "Reverb"}, nil).Once()

	svc := plugin.NewService(repo, nil)
	p, err := svc.RegisterPlugin(ctx, "Reverb")
	require.NoError(t, err)
	require.Equal(t, plugin.PluginID(1), p.ID)

	p, err = svc.RegisterPlugin(ctx, "Reverb")
	require.NoError(t, err)
	require.Equal(t, plugin.PluginID(1), p.ID)
	repo.AssertExpectations(t)
}

func TestPluginService_RegisterPlugin_BlankName(t *testing.T) {
	svc := plugin.NewService(&mocks.PluginRepository{}, nil)
	_, err := svc.RegisterPlugin(context.Background(), "  ")
	require.ErrorIs(t, err, plugin.ErrInvalidInput)
}

func TestPluginService_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.PluginRepository{}

	repo.On("GetPlugin", ctx, plugin.PluginID(2)).Return(&plugin.Plugin{ID: 2, Name: "Delay"}, nil)
	repo.On("GetPlugin", ctx, plugin.PluginID(9)).Return(nil, repository.ErrNotFound)
	repo.On("GetProgram", ctx, plugin.PluginID(2), plugin.ProgramID(1)).Return(&plugin.Program{PluginID: 2, ID: 1, Name: "Short"}, nil)
	repo.On("GetProgram", ctx, plugin.PluginID(2), plugin.ProgramID(4)).Return(nil, repository.ErrNotFound)

	svc := plugin.NewService(repo, nil)
	require.NoError(t, svc.Resolve(ctx, 2, 1))
	require.ErrorIs(t, svc.Resolve(ctx, 2, 4), plugin.ErrUnknownProgram)
	require.ErrorIs(t, svc.Resolve(ctx, 9, 1), plugin.ErrUnknownPlugin)
	require.ErrorIs(t, svc.Resolve(ctx, 0, 1), plugin.ErrInvalidID)
	require.ErrorIs(t, svc.Resolve(ctx, 2, 0), plugin.ErrInvalidID)
}

func TestPluginService_RegisterProgram_UnknownPlugin(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.PluginRepository{}
	repo.On("GetPlugin", ctx, plugin.PluginID(3)).Return(nil, repository.ErrNotFound)

	svc := plugin.NewService(repo, nil)
	_, err := svc.RegisterProgram(ctx, 3, "Warm")
	require.ErrorIs(t, err, plugin.ErrUnknownPlugin)
}

func TestPluginService_SearchPaths(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.PluginRepository{}
	repo.On("AddSearchPath", ctx, "/vst").Return(nil)
	repo.On("ListSearchPaths", ctx).Return([]string{"/vst"}, nil)

	svc := plugin.NewService(repo, nil)
	require.ErrorIs(t, svc.AddSearchPath(ctx, ""), plugin.ErrInvalidInput)
	require.NoError(t, svc.AddSearchPath(ctx, " /vst "))
	paths, err := svc.SearchPaths(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"/vst"}, paths)
}
