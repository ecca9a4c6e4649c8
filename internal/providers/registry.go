package providers

import "fmt"

// Registry is the single dispatch point from provider id to descriptor
type Registry struct {
	byID  map[string]*Descriptor
	order []string
}

// NewRegistry builds a registry. Duplicate ids panic; the table is static.
func NewRegistry(descriptors ...*Descriptor) *Registry {
	r := &Registry{byID: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if _, dup := r.byID[d.ID]; dup {
			panic(fmt.Sprintf("providers: duplicate descriptor %q", d.ID))
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r
}

// Default returns a registry holding every built-in provider
func Default() *Registry {
	return NewRegistry(builtin()...)
}

// Get returns the descriptor for id
func (r *Registry) Get(id string) (*Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// List returns descriptors in registration order
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns provider ids in registration order
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}
