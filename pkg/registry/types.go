// pkg/registry/types.go

package registry

import "encoding/json"

// ManagedService is built from ./services/<name>.
type ManagedService struct {
	Name    string             `json:"name"`
	Volumes Optional[[]string] `json:"volumes,omitzero"`
}

// InfraService runs a pre-built image.
type InfraService struct {
	Name        string
	Image       string
	Ports       Optional[[]string]
	Environment Optional[Environment]
	Volumes     Optional[[]string]
}

// infraJSON is the persisted shape. The infra marker is always written so the
// registry file stays readable by tools that classify entries by that flag.
type infraJSON struct {
	Name        string                `json:"name"`
	Infra       bool                  `json:"infra"`
	Image       string                `json:"image"`
	Ports       Optional[[]string]    `json:"ports,omitzero"`
	Environment Optional[Environment] `json:"environment,omitzero"`
	Volumes     Optional[[]string]    `json:"volumes,omitzero"`
}

func (s InfraService) MarshalJSON() ([]byte, error) {
	return json.Marshal(infraJSON{
		Name:        s.Name,
		Infra:       true,
		Image:       s.Image,
		Ports:       s.Ports,
		Environment: s.Environment,
		Volumes:     s.Volumes,
	})
}

func (s *InfraService) UnmarshalJSON(data []byte) error {
	var raw infraJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = InfraService{
		Name:        raw.Name,
		Image:       raw.Image,
		Ports:       raw.Ports,
		Environment: raw.Environment,
		Volumes:     raw.Volumes,
	}
	return nil
}

// Registry is the persisted set of service definitions, in insertion order.
type Registry struct {
	Managed []ManagedService `json:"managed"`
	Infra   []InfraService   `json:"infra"`
}

// Empty returns a registry with both sequences non-nil, so it serializes as
// {"managed": [], "infra": []}.
func Empty() *Registry {
	return &Registry{Managed: []ManagedService{}, Infra: []InfraService{}}
}

func (r *Registry) normalize() {
	if r.Managed == nil {
		r.Managed = []ManagedService{}
	}
	if r.Infra == nil {
		r.Infra = []InfraService{}
	}
}

// Len is the total number of entries across both sequences.
func (r *Registry) Len() int {
	return len(r.Managed) + len(r.Infra)
}

// Has reports whether any entry is registered under name.
func (r *Registry) Has(name string) bool {
	for _, s := range r.Managed {
		if s.Name == name {
			return true
		}
	}
	for _, s := range r.Infra {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Remove drops every entry named name and reports how many were removed.
func (r *Registry) Remove(name string) int {
	removed := 0

	managed := r.Managed[:0]
	for _, s := range r.Managed {
		if s.Name == name {
			removed++
			continue
		}
		managed = append(managed, s)
	}
	r.Managed = managed

	infra := r.Infra[:0]
	for _, s := range r.Infra {
		if s.Name == name {
			removed++
			continue
		}
		infra = append(infra, s)
	}
	r.Infra = infra

	return removed
}

// Definition is an add request. It is classified as infra when Infra is true.
type Definition struct {
	Name        string                `json:"name" validate:"required"`
	Infra       bool                  `json:"infra,omitempty"`
	Image       string                `json:"image,omitempty" validate:"required_if=Infra true"`
	Ports       Optional[[]string]    `json:"ports,omitzero"`
	Environment Optional[Environment] `json:"environment,omitzero"`
	Volumes     Optional[[]string]    `json:"volumes,omitzero"`
}

// Kind is "infra" or "managed".
func (d Definition) Kind() string {
	if d.Infra {
		return "infra"
	}
	return "managed"
}

func (d Definition) managed() ManagedService {
	return ManagedService{Name: d.Name, Volumes: d.Volumes}
}

func (d Definition) infra() InfraService {
	return InfraService{
		Name:        d.Name,
		Image:       d.Image,
		Ports:       d.Ports,
		Environment: d.Environment,
		Volumes:     d.Volumes,
	}
}
