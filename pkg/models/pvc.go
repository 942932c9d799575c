package models

// PVC is an external persistent-volume resource a volume-mount slot can bind
// to. Opaque to the console beyond its name and capacity.
type PVC struct {
	PVCName      string `json:"pvc_name" validate:"required"`
	Capacity     string `json:"capacity"`
	ResourceName string `json:"resource_name,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
}
