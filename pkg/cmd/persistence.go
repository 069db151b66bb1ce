// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/persistence/file"
	"github.com/maestrohq/maestro/pkg/persistence/postgresql"
)

// NewPersistence selects a persistence backend from the database URL scheme.
// postgres:// and postgresql:// URLs get the PostgreSQL backend; anything
// else is treated as a directory path for the file backend.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseScheme(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}

func parseScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return scheme
}
