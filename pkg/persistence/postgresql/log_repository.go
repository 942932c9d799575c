package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LogRepository accumulates node execution logs, one row per node.
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository creates a new log repository.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Get returns the accumulated log text for a node. A node that has produced
// no logs yet yields an empty string, not an error.
func (lr *LogRepository) Get(ctx context.Context, instanceID, nodeID string) (string, error) {
	var logs string

	err := lr.db.QueryRowContext(ctx,
		"SELECT logs FROM node_logs WHERE instance_id = $1 AND node_id = $2",
		instanceID, nodeID).Scan(&logs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("failed to query logs for node %s: %w", nodeID, err)
	}

	return logs, nil
}

// Append concatenates a chunk onto a node's log row, creating the row on
// first write.
func (lr *LogRepository) Append(ctx context.Context, instanceID, nodeID, chunk string) error {
	_, err := lr.db.ExecContext(ctx, `
		INSERT INTO node_logs (instance_id, node_id, logs, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (instance_id, node_id) DO UPDATE SET
			logs = node_logs.logs || EXCLUDED.logs,
			updated_at = NOW()`,
		instanceID, nodeID, chunk)
	if err != nil {
		return fmt.Errorf("failed to append logs for node %s: %w", nodeID, err)
	}

	return nil
}
