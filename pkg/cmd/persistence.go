// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runshine/secflow-console/pkg/persistence"
	"github.com/runshine/secflow-console/pkg/persistence/file"
	"github.com/runshine/secflow-console/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence layer from a database URL. Postgres
// URLs get the PostgreSQL backend; anything else falls back to file storage
// rooted at the URL path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
