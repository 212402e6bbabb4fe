// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a resource does not exist.
var ErrNotFound = errors.New("not found")

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// ResourceStore persists the resource graphs served through views. Resources
// are schemaless maps; the view layer decides which fields surface on the
// wire. Related resources referenced by relationships are stored and fetched
// independently; resolving identifiers into live resources before rendering
// is the caller's job.
type ResourceStore interface {
	// List returns all resources of a type.
	List(ctx context.Context, resourceType string) ([]map[string]any, error)

	// Get returns one resource by id.
	Get(ctx context.Context, resourceType, id string) (map[string]any, error)

	// Create stores a new resource and returns it with its assigned id.
	Create(ctx context.Context, resourceType string, resource map[string]any) (map[string]any, error)

	// Update merges fields into an existing resource and returns the result.
	Update(ctx context.Context, resourceType, id string, fields map[string]any) (map[string]any, error)

	// Delete removes a resource.
	Delete(ctx context.Context, resourceType, id string) error
}
