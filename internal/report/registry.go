package report

import (
	"fmt"
	"sort"
)

// TemplateNotFoundError reports a lookup of an unregistered template id.
type TemplateNotFoundError struct {
	ID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("report template %q is not registered", e.ID)
}

// Registry holds the explicit template set built at startup. It is not safe
// for concurrent registration; register everything before serving.
type Registry struct {
	templates map[string]Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// Register adds a template. Registering a duplicate id panics: the template
// set is static program configuration, so a collision is a programming error.
func (r *Registry) Register(t Template) {
	id := t.Meta().ID
	if _, exists := r.templates[id]; exists {
		panic(fmt.Sprintf("report template %q registered twice", id))
	}
	r.templates[id] = t
}

// Get returns the template for id.
func (r *Registry) Get(id string) (Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, &TemplateNotFoundError{ID: id}
	}
	return t, nil
}

// List returns the metadata of all registered templates, sorted by id.
func (r *Registry) List() []Meta {
	metas := make([]Meta, 0, len(r.templates))
	for _, t := range r.templates {
		metas = append(metas, t.Meta())
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
	return metas
}
