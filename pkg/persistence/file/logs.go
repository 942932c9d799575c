package file

import (
	"context"
	"fmt"
	"os"
	"path"
)

// LogRepository stores node execution logs as plain text files under
// <root>/logs/<instance>.
type LogRepository struct {
	root string
}

// NewLogRepository creates a new log repository.
func NewLogRepository(root string) *LogRepository {
	return &LogRepository{root: root}
}

func (lr *LogRepository) filePath(instanceID, nodeID string) string {
	return path.Join(lr.root, "logs", instanceID, nodeID+".log")
}

// Get returns the accumulated log text for a node. A node that has produced
// no logs yet yields an empty string, not an error.
func (lr *LogRepository) Get(_ context.Context, instanceID, nodeID string) (string, error) {
	data, err := os.ReadFile(lr.filePath(instanceID, nodeID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}

		return "", fmt.Errorf("failed to read logs for node %s: %w", nodeID, err)
	}

	return string(data), nil
}

// Append adds a chunk to a node's log file, creating it on first write.
func (lr *LogRepository) Append(_ context.Context, instanceID, nodeID, chunk string) error {
	dir := path.Join(lr.root, "logs", instanceID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(lr.filePath(instanceID, nodeID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file for node %s: %w", nodeID, err)
	}

	defer f.Close()

	if _, err := f.WriteString(chunk); err != nil {
		return fmt.Errorf("failed to append logs for node %s: %w", nodeID, err)
	}

	return nil
}
