package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// TemplateRepository stores templates as JSON files under
// <root>/templates/<kind>.
type TemplateRepository struct {
	root string
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(root string) *TemplateRepository {
	return &TemplateRepository{root: root}
}

func (tr *TemplateRepository) dir(kind models.TemplateKind) string {
	return path.Join(tr.root, "templates", string(kind))
}

func (tr *TemplateRepository) filePath(kind models.TemplateKind, id string) string {
	return path.Join(tr.dir(kind), id+".json")
}

// GetAll returns templates of one kind, optionally filtered by a
// case-insensitive name substring.
func (tr *TemplateRepository) GetAll(ctx context.Context, kind models.TemplateKind, nameFilter string) ([]*models.Template, error) {
	entries, err := fs.Glob(os.DirFS(tr.dir(kind)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}

	templates := make([]*models.Template, 0, len(entries))

	for _, entry := range entries {
		id := entry[:len(entry)-5]

		template, err := tr.GetByID(ctx, kind, id)
		if err != nil {
			return nil, err
		}

		if nameFilter != "" && !strings.Contains(strings.ToLower(template.Name), strings.ToLower(nameFilter)) {
			continue
		}

		templates = append(templates, template)
	}

	return templates, nil
}

// GetByID loads one template.
func (tr *TemplateRepository) GetByID(_ context.Context, kind models.TemplateKind, id string) (*models.Template, error) {
	data, err := os.ReadFile(tr.filePath(kind, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.TemplateError{Op: "GetByID", TemplateID: id, Err: persistence.ErrTemplateNotFound}
		}

		return nil, &persistence.TemplateError{Op: "GetByID", TemplateID: id, Err: err}
	}

	var template models.Template

	if err := json.Unmarshal(data, &template); err != nil {
		return nil, &persistence.TemplateError{Op: "GetByID", TemplateID: id, Err: err}
	}

	return &template, nil
}

// Delete removes one template file.
func (tr *TemplateRepository) Delete(_ context.Context, kind models.TemplateKind, id string) error {
	if err := os.Remove(tr.filePath(kind, id)); err != nil {
		if os.IsNotExist(err) {
			return &persistence.TemplateError{Op: "Delete", TemplateID: id, Err: persistence.ErrTemplateNotFound}
		}

		return &persistence.TemplateError{Op: "Delete", TemplateID: id, Err: err}
	}

	return nil
}

// Save writes one template, stamping timestamps.
func (tr *TemplateRepository) Save(_ context.Context, template *models.Template) error {
	if err := os.MkdirAll(tr.dir(template.Kind), 0o755); err != nil {
		return &persistence.TemplateError{Op: "Save", TemplateID: template.ID, Err: err}
	}

	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return &persistence.TemplateError{Op: "Save", TemplateID: template.ID, Err: err}
	}

	if err := os.WriteFile(tr.filePath(template.Kind, template.ID), data, 0o600); err != nil {
		return &persistence.TemplateError{Op: "Save", TemplateID: template.ID, Err: err}
	}

	return nil
}
