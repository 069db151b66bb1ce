// Package postgresql provides PostgreSQL backed persistence.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
)

// Persistence implements persistence.Persistence over PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence opens a connection pool and applies pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Persistence{db: db, logger: logger}

	manager := newMigrationManager(logger, db)
	if err := manager.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return p, nil
}

// HealthCheck pings the database.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the connection pool.
func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}

func (p *Persistence) closeRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
