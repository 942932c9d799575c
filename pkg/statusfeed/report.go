// Package statusfeed ingests node status reports from the execution
// platform and applies them to the instance store.
package statusfeed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/runshine/secflow-console/pkg/models"
)

// reportSchema is the wire contract for status reports. Unknown fields are
// rejected so a malformed producer fails loudly instead of silently dropping
// data.
const reportSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["instance_id", "node_id", "status"],
	"properties": {
		"instance_id": {"type": "string", "minLength": 1},
		"node_id": {"type": "string", "minLength": 1},
		"status": {"type": "string", "enum": ["pending", "running", "succeeded", "failed", "stopped"]},
		"message": {"type": "string"},
		"logs": {"type": "string"},
		"reported_at": {"type": "string", "format": "date-time"}
	}
}`

// StatusReport is one status transition reported by the execution platform.
// Logs, when present, are appended to the node's accumulated log text.
type StatusReport struct {
	InstanceID string            `json:"instance_id"`
	NodeID     string            `json:"node_id"`
	Status     models.NodeStatus `json:"status"`
	Message    string            `json:"message,omitempty"`
	Logs       string            `json:"logs,omitempty"`
	ReportedAt string            `json:"reported_at,omitempty"`
}

// ParseReport validates raw payload bytes against the report schema and
// decodes them.
func ParseReport(data []byte) (*StatusReport, error) {
	schemaLoader := gojsonschema.NewStringLoader(reportSchema)
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReport, err.Error())
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidReport, strings.Join(descriptions, "; "))
	}

	var report StatusReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReport, err.Error())
	}

	return &report, nil
}
