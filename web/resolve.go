package web

import (
	"context"
	"errors"
	"strings"

	"github.com/artpar/apiview/core/view"
	"github.com/artpar/apiview/pkg/jsonapi"
	"github.com/artpar/apiview/ports"
)

// resolveGraph fetches the related resources named by include paths and
// grafts them onto the resource map, so the renderer sees a fully resolved
// input graph. Relationships not named by any include path stay as stored
// identifier maps, which carry enough (an id field) for linkage.
func (h *Handler) resolveGraph(ctx context.Context, v *view.Schema, resource map[string]any, include []string) error {
	for _, path := range include {
		if err := h.resolvePath(ctx, v, resource, splitPath(path)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) resolvePath(ctx context.Context, v *view.Schema, resource map[string]any, segments []string) error {
	if len(segments) == 0 {
		return nil
	}

	rel, ok := v.Relationship(segments[0])
	if !ok {
		rel, ok = v.RelationshipForType(segments[0])
	}
	if !ok {
		// Leave unknown segments for the renderer, which reports them as a
		// client-facing include error.
		return nil
	}

	target, err := v.RelatedView(rel.Name)
	if err != nil {
		return err
	}

	ids := linkageIDs(resource[rel.Name])
	fetched := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		res, err := h.store.Get(ctx, target.Type(), id)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := h.resolvePath(ctx, target, res, segments[1:]); err != nil {
			return err
		}
		fetched = append(fetched, res)
	}

	if rel.Many {
		resource[rel.Name] = fetched
	} else if len(fetched) > 0 {
		resource[rel.Name] = fetched[0]
	}

	return nil
}

// linkageIDs extracts resource ids from a stored relationship value, which
// may be an identifier map, a resolved resource map, a typed identifier, or
// a slice of any of those.
func linkageIDs(v any) []string {
	switch linkage := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if id, ok := linkage["id"].(string); ok && id != "" {
			return []string{id}
		}
		return nil
	case []map[string]any:
		var ids []string
		for _, item := range linkage {
			ids = append(ids, linkageIDs(item)...)
		}
		return ids
	case []any:
		var ids []string
		for _, item := range linkage {
			ids = append(ids, linkageIDs(item)...)
		}
		return ids
	case jsonapi.ResourceIdentifier:
		return []string{linkage.ID}
	case *jsonapi.ResourceIdentifier:
		if linkage == nil {
			return nil
		}
		return []string{linkage.ID}
	case []jsonapi.ResourceIdentifier:
		ids := make([]string, 0, len(linkage))
		for _, item := range linkage {
			ids = append(ids, item.ID)
		}
		return ids
	default:
		return nil
	}
}

// storableFields converts typed relationship identifiers from the
// deserializer into plain maps so both store backends persist the same
// shape.
func storableFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch linkage := v.(type) {
		case *jsonapi.ResourceIdentifier:
			if linkage == nil {
				out[k] = nil
			} else {
				out[k] = identifierMap(*linkage)
			}
		case jsonapi.ResourceIdentifier:
			out[k] = identifierMap(linkage)
		case []jsonapi.ResourceIdentifier:
			maps := make([]any, len(linkage))
			for i, item := range linkage {
				maps[i] = identifierMap(item)
			}
			out[k] = maps
		default:
			out[k] = v
		}
	}
	return out
}

func identifierMap(id jsonapi.ResourceIdentifier) map[string]any {
	return map[string]any{"type": id.Type, "id": id.ID}
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, ".") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
