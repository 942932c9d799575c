package models

import "time"

// TemplateKind distinguishes long-running application templates from
// run-to-completion job templates.
type TemplateKind string

const (
	TemplateKindApp TemplateKind = "app"
	TemplateKindJob TemplateKind = "job"
)

// Valid reports whether k is one of the two known kinds.
func (k TemplateKind) Valid() bool {
	return k == TemplateKindApp || k == TemplateKindJob
}

// TemplateRef identifies a template by id and kind.
type TemplateRef struct {
	ID   string       `json:"id"   validate:"required"`
	Kind TemplateKind `json:"kind" validate:"required,oneof=app job"`
}

// InputEnvVar declares an environment-variable slot a template exposes as
// instance-customizable.
type InputEnvVar struct {
	Name         string `json:"name" validate:"required"`
	DefaultValue string `json:"default_value,omitempty"`
}

// InputVolumeMount declares a volume-mount slot a template exposes as
// instance-customizable. The PVC binding is chosen per node.
type InputVolumeMount struct {
	MountPath string `json:"mount_path" validate:"required"`
	SubPath   string `json:"sub_path,omitempty"`
	ReadOnly  bool   `json:"read_only,omitempty"`
}

// Container is one container spec inside a template. Everything besides the
// declared input slots is opaque payload handed through to the execution
// platform.
type Container struct {
	Name              string             `json:"name"  validate:"required"`
	Image             string             `json:"image" validate:"required"`
	Command           []string           `json:"command,omitempty"`
	Args              []string           `json:"args,omitempty"`
	WorkingDir        string             `json:"working_dir,omitempty"`
	Resources         *Resources         `json:"resources,omitempty"`
	InputEnvVars      []InputEnvVar      `json:"input_env_vars,omitempty"`
	InputVolumeMounts []InputVolumeMount `json:"input_volume_mounts,omitempty"`
}

// Template is a reusable container-deployment blueprint with a declared
// input contract. Read-only to the console core.
type Template struct {
	ID          string       `json:"id"`
	Name        string       `json:"name" validate:"required,min=1"`
	Kind        TemplateKind `json:"kind" validate:"required,oneof=app job"`
	Description string       `json:"description,omitempty"`
	Containers  []*Container `json:"containers" validate:"required,min=1,dive"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TemplateSummary is the catalog row returned by template list calls.
type TemplateSummary struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind TemplateKind `json:"kind"`
}
