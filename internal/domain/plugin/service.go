package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/nowloop/internal/repository"
)

// Service manages the plugin catalog: search paths, plugin names and their
// programs. The hosting layer scans the paths and reports what it finds; the
// catalog only stores and resolves the resulting identifiers.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new catalog service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// AddSearchPath records a directory the hosting layer should scan.
func (s *Service) AddSearchPath(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrInvalidInput
	}
	if err := s.repo.AddSearchPath(ctx, path); err != nil {
		return fmt.Errorf("adding search path: %w", err)
	}
	return nil
}

// SearchPaths lists the recorded search paths in insertion order.
func (s *Service) SearchPaths(ctx context.Context) ([]string, error) {
	return s.repo.ListSearchPaths(ctx)
}

// RegisterPlugin adds a plugin by name, returning the existing entry if the
// name is already known.
func (s *Service) RegisterPlugin(ctx context.Context, name string) (*Plugin, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetPluginByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up plugin: %w", err)
	}
	p, err := s.repo.CreatePlugin(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("creating plugin: %w", err)
	}
	s.logger.Debug("plugin registered", "plugin_id", p.ID, "name", p.Name)
	return p, nil
}

// RegisterProgram adds a program to a known plugin.
func (s *Service) RegisterProgram(ctx context.Context, pluginID PluginID, name string) (*Program, error) {
	if err := CheckPlugin(pluginID); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := s.Plugin(ctx, pluginID); err != nil {
		return nil, err
	}
	prog, err := s.repo.CreateProgram(ctx, pluginID, name)
	if err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}
	return prog, nil
}

// Plugins lists the catalog ordered by id.
func (s *Service) Plugins(ctx context.Context) ([]Plugin, error) {
	return s.repo.ListPlugins(ctx)
}

// Plugin returns one catalog entry.
func (s *Service) Plugin(ctx context.Context, id PluginID) (*Plugin, error) {
	if err := CheckPlugin(id); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPlugin(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlugin, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting plugin: %w", err)
	}
	return p, nil
}

// Programs lists the programs of a plugin ordered by id.
func (s *Service) Programs(ctx context.Context, pluginID PluginID) ([]Program, error) {
	if _, err := s.Plugin(ctx, pluginID); err != nil {
		return nil, err
	}
	return s.repo.ListPrograms(ctx, pluginID)
}

// Resolve verifies that a plugin/program pair exists in the catalog.
func (s *Service) Resolve(ctx context.Context, pluginID PluginID, programID ProgramID) error {
	if err := CheckProgram(programID); err != nil {
		return err
	}
	if _, err := s.Plugin(ctx, pluginID); err != nil {
		return err
	}
	_, err := s.repo.GetProgram(ctx, pluginID, programID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: plugin %d program %d", ErrUnknownProgram, pluginID, programID)
	}
	if err != nil {
		return fmt.Errorf("getting program: %w", err)
	}
	return nil
}
