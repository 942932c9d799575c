package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence"
)

// ErrTemplateNotFound is returned when a template is not found.
var ErrTemplateNotFound = persistence.ErrTemplateNotFound

// IsTemplateNotFound checks if an error indicates a template was not found.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// Template serves the read-only template catalog.
type Template struct {
	persistence persistence.Persistence
}

// NewTemplate creates a new template service.
func NewTemplate(p persistence.Persistence) *Template {
	return &Template{persistence: p}
}

// ListTemplates returns catalog summaries of one kind, optionally filtered
// by a name substring.
func (s *Template) ListTemplates(ctx context.Context, kind models.TemplateKind, nameFilter string) ([]*models.TemplateSummary, error) {
	if !kind.Valid() {
		return nil, ErrUnknownTemplateKind
	}

	templates, err := s.persistence.Templates(ctx, kind, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	summaries := make([]*models.TemplateSummary, 0, len(templates))

	for _, template := range templates {
		summaries = append(summaries, &models.TemplateSummary{
			ID:   template.ID,
			Name: template.Name,
			Kind: template.Kind,
		})
	}

	return summaries, nil
}

// GetTemplate returns one full template record.
func (s *Template) GetTemplate(ctx context.Context, kind models.TemplateKind, id string) (*models.Template, error) {
	if !kind.Valid() {
		return nil, ErrUnknownTemplateKind
	}

	template, err := s.persistence.TemplateByID(ctx, kind, id)
	if err != nil {
		if persistence.IsTemplateNotFound(err) {
			return nil, ErrTemplateNotFound
		}

		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

// DeleteTemplate removes a template from the catalog. Nodes already built
// from it keep their copied configuration.
func (s *Template) DeleteTemplate(ctx context.Context, kind models.TemplateKind, id string) error {
	if !kind.Valid() {
		return ErrUnknownTemplateKind
	}

	if err := s.persistence.DeleteTemplate(ctx, kind, id); err != nil {
		if persistence.IsTemplateNotFound(err) {
			return ErrTemplateNotFound
		}

		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

// SaveTemplate registers or updates a template in the catalog.
func (s *Template) SaveTemplate(ctx context.Context, template *models.Template) error {
	if !template.Kind.Valid() {
		return ErrUnknownTemplateKind
	}

	if template.Name == "" {
		return fmt.Errorf("template name: %w", ErrInvalidRequest)
	}

	if template.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate template id: %w", err)
		}

		template.ID = id.String()
	}

	if err := s.persistence.SaveTemplate(ctx, template); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	return nil
}
