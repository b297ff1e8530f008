package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/repository"
)

// PluginRepository implements plugin.Repository for SQLite
type PluginRepository struct {
	db *DB
}

// NewPluginRepository creates a new PluginRepository
func NewPluginRepository(db *DB) *PluginRepository {
	return &PluginRepository{db: db}
}

// AddSearchPath records a plugin search path. Adding a known path is a no-op.
func (r *PluginRepository) AddSearchPath(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO plugin_search_paths (path) VALUES (?)`, path)
	if err != nil {
		return fmt.Errorf("failed to add search path: %w", err)
	}
	return nil
}

// ListSearchPaths returns search paths in insertion order
func (r *PluginRepository) ListSearchPaths(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path FROM plugin_search_paths ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list search paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan search path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search paths: %w", err)
	}
	return paths, nil
}

// CreatePlugin inserts a plugin and returns it with its assigned id
func (r *PluginRepository) CreatePlugin(ctx context.Context, name string) (*plugin.Plugin, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO plugins (name) VALUES (?)`, name)
	if err != nil {
		return nil, storeError(err, "create plugin", "plugin "+name)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin id: %w", err)
	}
	return &plugin.Plugin{ID: plugin.PluginID(id), Name: name}, nil
}

// GetPlugin retrieves a plugin by id
func (r *PluginRepository) GetPlugin(ctx context.Context, id plugin.PluginID) (*plugin.Plugin, error) {
	return r.getPlugin(ctx, `SELECT id, name FROM plugins WHERE id = ?`, id)
}

// GetPluginByName retrieves a plugin by its unique name
func (r *PluginRepository) GetPluginByName(ctx context.Context, name string) (*plugin.Plugin, error) {
	return r.getPlugin(ctx, `SELECT id, name FROM plugins WHERE name = ?`, name)
}

func (r *PluginRepository) getPlugin(ctx context.Context, query string, arg any) (*plugin.Plugin, error) {
	var p plugin.Plugin
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plugin: %w", err)
	}
	return &p, nil
}

// ListPlugins returns the catalog ordered by id
func (r *PluginRepository) ListPlugins(ctx context.Context) ([]plugin.Plugin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM plugins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}
	defer rows.Close()

	var plugins []plugin.Plugin
	for rows.Next() {
		var p plugin.Plugin
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan plugin: %w", err)
		}
		plugins = append(plugins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plugin rows: %w", err)
	}
	return plugins, nil
}

// CreateProgram inserts a program numbered after the plugin's existing ones
func (r *PluginRepository) CreateProgram(ctx context.Context, pluginID plugin.PluginID, name string) (*plugin.Program, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(program_id), 0) + 1 FROM plugin_programs WHERE plugin_id = ?`,
		pluginID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to number program: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plugin_programs (plugin_id, program_id, name) VALUES (?, ?, ?)`,
		pluginID, next, name,
	)
	if err != nil {
		return nil, storeError(err, "create program", fmt.Sprintf("program %q of plugin %d", name, pluginID))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit program: %w", err)
	}
	return &plugin.Program{PluginID: pluginID, ID: plugin.ProgramID(next), Name: name}, nil
}

// GetProgram retrieves one program of a plugin
func (r *PluginRepository) GetProgram(ctx context.Context, pluginID plugin.PluginID, id plugin.ProgramID) (*plugin.Program, error) {
	var p plugin.Program
	err := r.db.QueryRowContext(ctx,
		`SELECT plugin_id, program_id, name FROM plugin_programs WHERE plugin_id = ? AND program_id = ?`,
		pluginID, id,
	).Scan(&p.PluginID, &p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return &p, nil
}

// ListPrograms returns a plugin's programs ordered by id
func (r *PluginRepository) ListPrograms(ctx context.Context, pluginID plugin.PluginID) ([]plugin.Program, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plugin_id, program_id, name FROM plugin_programs WHERE plugin_id = ? ORDER BY program_id`,
		pluginID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var programs []plugin.Program
	for rows.Next() {
		var p plugin.Program
		if err := rows.Scan(&p.PluginID, &p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating program rows: %w", err)
	}
	return programs, nil
}
