// Package contract extracts the input contract a template declares: the
// environment-variable and volume-mount slots a node instantiated from it
// must fill in.
package contract

import (
	"context"
	"fmt"

	"github.com/runshine/secflow-console/pkg/client"
	"github.com/runshine/secflow-console/pkg/models"
)

// EnvSlot is one declared environment-variable slot.
type EnvSlot struct {
	Name         string
	DefaultValue string
}

// VolumeSlot is one declared volume-mount slot. The PVC binding is chosen
// per node, not declared by the template.
type VolumeSlot struct {
	MountPath string
	SubPath   string
	ReadOnly  bool
}

// InputContract is the full set of slots a template exposes, in declaration
// order.
type InputContract struct {
	EnvSlots    []EnvSlot
	VolumeSlots []VolumeSlot
}

// FromTemplate collects the input slots across all containers of a template.
// Slots are deduplicated first-seen-wins: env slots by name, volume slots by
// mount path. Later duplicates across containers are silently ignored; the
// operator configures one value per name regardless of how many containers
// consume it. Order is container order, then declaration order within each
// container.
func FromTemplate(tpl *models.Template) *InputContract {
	c := &InputContract{}
	seenEnv := make(map[string]bool)
	seenMount := make(map[string]bool)

	for _, container := range tpl.Containers {
		for _, env := range container.InputEnvVars {
			if seenEnv[env.Name] {
				continue
			}

			seenEnv[env.Name] = true
			c.EnvSlots = append(c.EnvSlots, EnvSlot{Name: env.Name, DefaultValue: env.DefaultValue})
		}

		for _, mount := range container.InputVolumeMounts {
			if seenMount[mount.MountPath] {
				continue
			}

			seenMount[mount.MountPath] = true
			c.VolumeSlots = append(c.VolumeSlots, VolumeSlot{
				MountPath: mount.MountPath,
				SubPath:   mount.SubPath,
				ReadOnly:  mount.ReadOnly,
			})
		}
	}

	return c
}

// Resolver fetches templates through the management API and extracts their
// input contracts.
type Resolver struct {
	api client.API
}

// NewResolver creates a resolver backed by the given API client.
func NewResolver(api client.API) *Resolver {
	return &Resolver{api: api}
}

// ResolveInputContract fetches the full template record for a reference and
// returns it together with the extracted contract. A missing template
// surfaces as client.ErrNotFound.
func (r *Resolver) ResolveInputContract(ctx context.Context, ref models.TemplateRef) (*models.Template, *InputContract, error) {
	var (
		tpl *models.Template
		err error
	)

	switch ref.Kind {
	case models.TemplateKindApp:
		tpl, err = r.api.GetAppTemplate(ctx, ref.ID)
	case models.TemplateKindJob:
		tpl, err = r.api.GetJobTemplate(ctx, ref.ID)
	default:
		return nil, nil, fmt.Errorf("unknown template kind: %s", ref.Kind)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve template %s/%s: %w", ref.Kind, ref.ID, err)
	}

	return tpl, FromTemplate(tpl), nil
}
