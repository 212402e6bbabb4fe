package view

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every registered view keyed by resource type. It is
// populated at startup and read concurrently thereafter; registration after
// startup is allowed but callers are expected not to need it.
type Registry struct {
	mu    sync.RWMutex
	views map[string]*Schema
	paths map[string]string // path segment -> type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string]*Schema),
		paths: make(map[string]string),
	}
}

// Register adds a schema to the registry. Duplicate types and duplicate path
// segments are configuration bugs and return an error. Registration binds
// the schema to this registry for lazy relationship resolution.
func (r *Registry) Register(s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[s.typ]; exists {
		return fmt.Errorf("view %q already registered", s.typ)
	}
	if owner, exists := r.paths[s.path]; exists {
		return fmt.Errorf("path %q already claimed by view %q", s.path, owner)
	}

	s.reg = r
	r.views[s.typ] = s
	r.paths[s.path] = s.typ
	return nil
}

// MustRegister is Register for startup wiring; it panics on conflicts.
func (r *Registry) MustRegister(s *Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get returns the view for a resource type.
func (r *Registry) Get(typ string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.views[typ]
	return s, ok
}

// GetByPath returns the view claiming a URL path segment.
func (r *Registry) GetByPath(segment string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.paths[segment]
	if !ok {
		return nil, false
	}
	return r.views[typ], true
}

// List returns all registered views sorted by type.
func (r *Registry) List() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]*Schema, 0, len(r.views))
	for _, s := range r.views {
		views = append(views, s)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].typ < views[j].typ })
	return views
}

// Verify checks that every relationship target of every registered view is
// itself registered. Targets resolve lazily at render time; Verify lets
// startup fail early instead.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for typ, s := range r.views {
		for _, rel := range s.relationships {
			if _, ok := r.views[rel.TargetView]; !ok {
				return fmt.Errorf("view %q: relationship %q targets unregistered view %q", typ, rel.Name, rel.TargetView)
			}
		}
	}
	return nil
}
