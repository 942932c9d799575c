package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// TemplateRepository stores templates with their container specs as JSONB.
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetAll returns templates of one kind, optionally filtered by a
// case-insensitive name substring.
func (tr *TemplateRepository) GetAll(ctx context.Context, kind models.TemplateKind, nameFilter string) ([]*models.Template, error) {
	query := `
		SELECT id, name, kind, description, containers, created_at, updated_at
		FROM templates
		WHERE kind = $1`
	args := []any{kind}

	if nameFilter != "" {
		query += " AND name ILIKE $2"
		args = append(args, "%"+nameFilter+"%")
	}

	query += " ORDER BY name"

	rows, err := tr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	defer rows.Close()

	templates := make([]*models.Template, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}

		templates = append(templates, template)
	}

	return templates, rows.Err()
}

// GetByID loads one template of the given kind.
func (tr *TemplateRepository) GetByID(ctx context.Context, kind models.TemplateKind, id string) (*models.Template, error) {
	row := tr.db.QueryRowContext(ctx, `
		SELECT id, name, kind, description, containers, created_at, updated_at
		FROM templates
		WHERE kind = $1 AND id = $2`, kind, id)

	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.TemplateError{Op: "GetByID", TemplateID: id, Err: persistence.ErrTemplateNotFound}
		}

		return nil, &persistence.TemplateError{Op: "GetByID", TemplateID: id, Err: err}
	}

	return template, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*models.Template, error) {
	template := &models.Template{}

	var containers []byte

	err := row.Scan(&template.ID, &template.Name, &template.Kind,
		&template.Description, &containers, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(containers, &template.Containers); err != nil {
		return nil, fmt.Errorf("failed to decode containers for template %s: %w", template.ID, err)
	}

	return template, nil
}

// Save upserts one template.
func (tr *TemplateRepository) Save(ctx context.Context, template *models.Template) error {
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	containers, err := json.Marshal(template.Containers)
	if err != nil {
		return &persistence.TemplateError{Op: "Save", TemplateID: template.ID, Err: err}
	}

	_, err = tr.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, kind, description, containers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			description = EXCLUDED.description,
			containers = EXCLUDED.containers,
			updated_at = EXCLUDED.updated_at`,
		template.ID, template.Name, template.Kind, template.Description,
		containers, template.CreatedAt, template.UpdatedAt)
	if err != nil {
		return &persistence.TemplateError{Op: "Save", TemplateID: template.ID, Err: err}
	}

	return nil
}

// Delete removes one template of the given kind.
func (tr *TemplateRepository) Delete(ctx context.Context, kind models.TemplateKind, id string) error {
	result, err := tr.db.ExecContext(ctx,
		"DELETE FROM templates WHERE kind = $1 AND id = $2", kind, id)
	if err != nil {
		return &persistence.TemplateError{Op: "Delete", TemplateID: id, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.TemplateError{Op: "Delete", TemplateID: id, Err: err}
	}

	if affected == 0 {
		return &persistence.TemplateError{Op: "Delete", TemplateID: id, Err: persistence.ErrTemplateNotFound}
	}

	return nil
}
