// Package nodeconfig builds the editable configuration of a workflow node by
// combining a template's input contract with either slot defaults (new node)
// or the values already stored on an existing node (edit).
package nodeconfig

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/runshine/secflow-console/pkg/client"
	"github.com/runshine/secflow-console/pkg/contract"
	"github.com/runshine/secflow-console/pkg/models"
)

var (
	// ErrNameRequired indicates the node display name is empty.
	ErrNameRequired = errors.New("node name is required")

	// ErrNodeIDRequired indicates the graph-local node identity is empty.
	ErrNodeIDRequired = errors.New("node id is required")

	// ErrNodeIDImmutable indicates an attempt to change the identity of an
	// existing node.
	ErrNodeIDImmutable = errors.New("node id is immutable once the node exists")
)

// IsValidationError checks if an error is a config validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrNodeIDRequired) ||
		errors.Is(err, ErrNodeIDImmutable)
}

// Config is the editable configuration of one node. For nodes that already
// exist the node id is structurally read-only: it is only reachable through
// NodeID() and SetNodeID rejects changes.
type Config struct {
	Name         string
	Kind         models.TemplateKind
	TemplateID   string
	EnvVars      []models.EnvVar
	VolumeMounts []models.VolumeMount

	nodeID   string
	existing bool
}

// New builds the configuration for a node about to be created from a
// template. The name defaults to the template's display name and the node id
// to a slug of that name with a short uniqueness suffix; both may be changed
// before the node is added to the graph.
func New(tpl *models.Template, c *contract.InputContract) *Config {
	cfg := &Config{
		Name:       tpl.Name,
		Kind:       tpl.Kind,
		TemplateID: tpl.ID,
		nodeID:     Slug(tpl.Name) + "-" + uniqueSuffix(),
	}

	for _, slot := range c.EnvSlots {
		cfg.EnvVars = append(cfg.EnvVars, models.EnvVar{Name: slot.Name, Value: slot.DefaultValue})
	}

	for _, slot := range c.VolumeSlots {
		cfg.VolumeMounts = append(cfg.VolumeMounts, models.VolumeMount{
			MountPath: slot.MountPath,
			SubPath:   slot.SubPath,
			ReadOnly:  slot.ReadOnly,
		})
	}

	return cfg
}

// Edit builds the configuration for an existing node. Each slot's value is
// resolved from the node's stored values first, falling back to the template
// default, falling back to empty.
func Edit(node *models.Node, c *contract.InputContract) *Config {
	cfg := &Config{
		Name:       node.Name,
		Kind:       node.Kind,
		TemplateID: node.TemplateID,
		nodeID:     node.NodeID,
		existing:   true,
	}

	stored := make(map[string]string, len(node.EnvVars))
	for _, env := range node.EnvVars {
		stored[env.Name] = env.Value
	}

	for _, slot := range c.EnvSlots {
		value, ok := stored[slot.Name]
		if !ok {
			value = slot.DefaultValue
		}

		cfg.EnvVars = append(cfg.EnvVars, models.EnvVar{Name: slot.Name, Value: value})
	}

	mounts := make(map[string]models.VolumeMount, len(node.VolumeMounts))
	for _, m := range node.VolumeMounts {
		mounts[m.MountPath] = m
	}

	for _, slot := range c.VolumeSlots {
		mount := models.VolumeMount{
			MountPath: slot.MountPath,
			SubPath:   slot.SubPath,
			ReadOnly:  slot.ReadOnly,
		}
		if existing, ok := mounts[slot.MountPath]; ok {
			mount.PVCName = existing.PVCName
		}

		cfg.VolumeMounts = append(cfg.VolumeMounts, mount)
	}

	return cfg
}

// NodeID returns the graph-local identity this configuration targets.
func (c *Config) NodeID() string {
	return c.nodeID
}

// SetNodeID overrides the generated identity of a not-yet-created node. It
// fails for configurations built from an existing node.
func (c *Config) SetNodeID(id string) error {
	if c.existing {
		return ErrNodeIDImmutable
	}

	c.nodeID = id

	return nil
}

// SetEnvVar sets the value of a named slot; unknown names are ignored.
func (c *Config) SetEnvVar(name, value string) {
	for i := range c.EnvVars {
		if c.EnvVars[i].Name == name {
			c.EnvVars[i].Value = value

			return
		}
	}
}

// BindVolume binds a mount-path slot to a PVC; unknown paths are ignored.
func (c *Config) BindVolume(mountPath, pvcName string) {
	for i := range c.VolumeMounts {
		if c.VolumeMounts[i].MountPath == mountPath {
			c.VolumeMounts[i].PVCName = pvcName

			return
		}
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.nodeID) == "" {
		return ErrNodeIDRequired
	}

	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}

	return nil
}

// configuredEnvVars drops env vars left with an empty value: an unfilled
// slot means "not yet configured", not an empty-string override.
func (c *Config) configuredEnvVars() []models.EnvVar {
	out := make([]models.EnvVar, 0, len(c.EnvVars))

	for _, env := range c.EnvVars {
		if env.Value != "" {
			out = append(out, env)
		}
	}

	return out
}

// configuredVolumeMounts drops mounts with no PVC selected.
func (c *Config) configuredVolumeMounts() []models.VolumeMount {
	out := make([]models.VolumeMount, 0, len(c.VolumeMounts))

	for _, mount := range c.VolumeMounts {
		if mount.PVCName != "" {
			out = append(out, mount)
		}
	}

	return out
}

// BuildNode materializes the configuration as a graph node at the given
// position. Unconfigured slots are omitted rather than sent as blank
// overrides; partial configuration is allowed to be saved.
func (c *Config) BuildNode(pos models.Position) (*models.Node, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	return &models.Node{
		NodeID:       c.nodeID,
		Kind:         c.Kind,
		TemplateID:   c.TemplateID,
		Name:         c.Name,
		Position:     pos,
		EnvVars:      c.configuredEnvVars(),
		VolumeMounts: c.configuredVolumeMounts(),
	}, nil
}

// UpdatePayload builds the patch for the direct modify-node flow. It never
// carries the node id.
func (c *Config) UpdatePayload() (*client.UpdateNodeRequest, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	name := c.Name

	return &client.UpdateNodeRequest{
		Name:         &name,
		EnvVars:      c.configuredEnvVars(),
		VolumeMounts: c.configuredVolumeMounts(),
	}, nil
}

// Slug converts a display name into a URL-safe node id fragment.
func Slug(name string) string {
	var b strings.Builder

	lastDash := true

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)

			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')

				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

func uniqueSuffix() string {
	return uuid.New().String()[:8]
}
