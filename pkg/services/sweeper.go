package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

const defaultRetention = 7 * 24 * time.Hour

// Sweeper performs the periodic maintenance passes of the store: it rolls
// instance statuses up from their nodes and purges soft-deleted instances
// past the retention window.
type Sweeper struct {
	persistence persistence.Persistence
	retention   time.Duration
	logger      *slog.Logger
}

// NewSweeper creates a new sweeper. A non-positive retention falls back to
// seven days.
func NewSweeper(p persistence.Persistence, retention time.Duration, logger *slog.Logger) *Sweeper {
	if retention <= 0 {
		retention = defaultRetention
	}

	return &Sweeper{
		persistence: p,
		retention:   retention,
		logger:      logger,
	}
}

// Sweep runs one maintenance pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if err := s.rollupStatuses(ctx); err != nil {
		return err
	}

	return s.purge(ctx)
}

// rollupStatuses recomputes each live instance's status from its nodes and
// writes it back when it drifted.
func (s *Sweeper) rollupStatuses(ctx context.Context) error {
	instances, err := s.persistence.Instances(ctx)
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}

	for _, instance := range instances {
		derived := models.RollupInstanceStatus(instance.Nodes)
		if derived == instance.Status {
			continue
		}

		if err := s.persistence.SetInstanceStatus(ctx, instance.ID, derived); err != nil {
			s.logger.WarnContext(ctx, "failed to roll up instance status",
				"instance_id", instance.ID, "status", derived, "error", err)

			continue
		}

		s.logger.InfoContext(ctx, "instance status rolled up",
			"instance_id", instance.ID, "from", instance.Status, "to", derived)
	}

	return nil
}

func (s *Sweeper) purge(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.retention)

	purged, err := s.persistence.PurgeDeletedInstances(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge deleted instances: %w", err)
	}

	if purged > 0 {
		s.logger.InfoContext(ctx, "purged soft-deleted instances",
			"count", purged, "cutoff", cutoff)
	}

	return nil
}
