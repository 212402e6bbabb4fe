// Package memory provides in-memory implementations of storage ports.
package memory

import (
	"context"
	"sync"

	"github.com/artpar/apiview/ports"
)

// ResourceStore is an in-memory implementation of ports.ResourceStore.
type ResourceStore struct {
	mu        sync.RWMutex
	resources map[string]map[string]map[string]any // type -> id -> resource
	order     map[string][]string                  // type -> insertion-ordered ids
	idgen     ports.IDGenerator
}

// NewResourceStore creates a new in-memory resource store.
func NewResourceStore(idgen ports.IDGenerator) *ResourceStore {
	return &ResourceStore{
		resources: make(map[string]map[string]map[string]any),
		order:     make(map[string][]string),
		idgen:     idgen,
	}
}

// List returns all resources of a type in insertion order.
func (s *ResourceStore) List(ctx context.Context, resourceType string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[resourceType]
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.resources[resourceType][id]))
	}
	return out, nil
}

// Get retrieves a resource by id.
func (s *ResourceStore) Get(ctx context.Context, resourceType, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.resources[resourceType][id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clone(res), nil
}

// Create stores a new resource, assigning an id when the caller supplies
// none.
func (s *ResourceStore) Create(ctx context.Context, resourceType string, resource map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := clone(resource)
	id, _ := res["id"].(string)
	if id == "" {
		id = s.idgen.New()
		res["id"] = id
	}

	if s.resources[resourceType] == nil {
		s.resources[resourceType] = make(map[string]map[string]any)
	}
	if _, exists := s.resources[resourceType][id]; !exists {
		s.order[resourceType] = append(s.order[resourceType], id)
	}
	s.resources[resourceType][id] = res

	return clone(res), nil
}

// Update merges fields into an existing resource.
func (s *ResourceStore) Update(ctx context.Context, resourceType, id string, fields map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.resources[resourceType][id]
	if !ok {
		return nil, ports.ErrNotFound
	}

	for k, v := range fields {
		if k == "id" {
			continue
		}
		res[k] = v
	}

	return clone(res), nil
}

// Delete removes a resource.
func (s *ResourceStore) Delete(ctx context.Context, resourceType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[resourceType][id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.resources[resourceType], id)

	ids := s.order[resourceType]
	for idx, existing := range ids {
		if existing == id {
			s.order[resourceType] = append(ids[:idx], ids[idx+1:]...)
			break
		}
	}
	return nil
}

// clone copies a resource map one level deep so callers never share storage.
func clone(resource map[string]any) map[string]any {
	out := make(map[string]any, len(resource))
	for k, v := range resource {
		out[k] = v
	}
	return out
}

// Ensure interface compliance.
var _ ports.ResourceStore = (*ResourceStore)(nil)
