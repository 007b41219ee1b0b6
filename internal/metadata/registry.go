package metadata

// Registry holds the entity descriptors, keyed by route name. It is built
// once in main and shared read-only across requests, so no locking is needed.
type Registry struct {
	entities map[string]*Entity
	order    []string
}

func NewRegistry(entities ...*Entity) *Registry {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		r.entities[e.Name] = e
		r.order = append(r.order, e.Name)
	}
	return r
}

// Entity returns the descriptor for the given route name, or nil.
func (r *Registry) Entity(name string) *Entity {
	return r.entities[name]
}

// Entities returns all descriptors in declaration order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entities[name])
	}
	return out
}
