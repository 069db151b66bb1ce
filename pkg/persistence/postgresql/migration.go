package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

const currentSchemaVersion = 1

var migrations = map[int]string{
	1: `
		CREATE TABLE IF NOT EXISTS graphs (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			nodes JSONB NOT NULL DEFAULT '[]',
			edges JSONB NOT NULL DEFAULT '[]',
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_graphs_workspace ON graphs (workspace_id);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			graph_id TEXT NOT NULL REFERENCES graphs (id),
			status TEXT NOT NULL,
			logs TEXT NOT NULL DEFAULT '',
			correlation_token TEXT NOT NULL UNIQUE,
			inputs JSONB NOT NULL DEFAULT '{}',
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			started_at TIMESTAMP WITH TIME ZONE,
			finished_at TIMESTAMP WITH TIME ZONE
		);

		CREATE INDEX IF NOT EXISTS idx_runs_graph ON runs (graph_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS provider_connections (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			credentials TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			last_sync_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_connections_lookup
			ON provider_connections (workspace_id, provider, status, created_at DESC);
	`,
}

// migrationManager handles database schema creation and updates.
type migrationManager struct {
	db     *sql.DB
	logger *slog.Logger
}

func newMigrationManager(logger *slog.Logger, db *sql.DB) *migrationManager {
	return &migrationManager{db: db, logger: logger}
}

func (m *migrationManager) runMigrations(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.currentSchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	m.logger.InfoContext(ctx, "Current schema version", "version", currentVersion)

	for version := currentVersion + 1; version <= currentSchemaVersion; version++ {
		if err := m.apply(ctx, version); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
	}

	return nil
}

func (m *migrationManager) createMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	return nil
}

func (m *migrationManager) currentSchemaVersion(ctx context.Context) (int, error) {
	var version int

	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query current schema version: %w", err)
	}

	return version, nil
}

func (m *migrationManager) apply(ctx context.Context, version int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, migrations[version]); err != nil {
		_ = tx.Rollback()

		return err
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		_ = tx.Rollback()

		return err
	}

	m.logger.InfoContext(ctx, "Applied migration", "version", version)

	return tx.Commit()
}
