// Package render walks resource graphs through their views and produces
// JSON:API documents: resource objects, relationship linkage, links, and
// deduplicated included resources.
package render

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/apiview/core/casing"
	"github.com/artpar/apiview/core/link"
	"github.com/artpar/apiview/core/view"
	"github.com/artpar/apiview/pkg/jsonapi"
)

// Observer receives render outcomes. The metrics adapter implements it;
// a nil observer disables observation.
type Observer interface {
	DocumentRendered(resourceType string, resources, included int)
	RenderFailed(resourceType string)
}

// Config wires a Renderer.
type Config struct {
	Views    *view.Registry
	Links    *link.Builder
	Style    casing.Style
	Logger   zerolog.Logger
	Observer Observer
}

// Renderer converts resources and collections into JSON:API documents. It
// holds only immutable state and is safe for concurrent use.
type Renderer struct {
	views *view.Registry
	links *link.Builder
	style casing.Style
	log   zerolog.Logger
	obs   Observer
}

// New creates a Renderer.
func New(cfg Config) *Renderer {
	style := cfg.Style
	if style == "" {
		style = casing.Default
	}
	return &Renderer{
		views: cfg.Views,
		links: cfg.Links,
		style: style,
		log:   cfg.Logger,
		obs:   cfg.Observer,
	}
}

// Style returns the wire case style the renderer encodes with.
func (r *Renderer) Style() casing.Style { return r.style }

// ResourceURL exposes the underlying link builder for callers that need a
// resource URL outside a rendered document (e.g. Location headers).
func (r *Renderer) ResourceURL(v *view.Schema, id string, ctx *view.Context) string {
	return r.links.ResourceURL(v, id, ctx)
}

// Options carries the per-request serialization directives handed over by
// the query-parsing collaborator.
type Options struct {
	// Include lists dotted relationship paths (canonical names) whose
	// resources are side-loaded into the document's included section.
	Include []string

	// Fields is the sparse fieldset filter: resource type to the canonical
	// field names to serialize. Types absent from the map are unfiltered.
	Fields map[string][]string
}

// IncludeError reports an include path segment that matches neither a
// relationship name nor a relationship target type. It is a client error,
// not a crash.
type IncludeError struct {
	Path    string
	Segment string
}

func (e *IncludeError) Error() string {
	return fmt.Sprintf("include path %q: unknown relationship %q", e.Path, e.Segment)
}

// ErrorObject converts the failure to a client-facing error object.
func (e *IncludeError) ErrorObject() jsonapi.Error {
	return jsonapi.NewError(400, "bad_include", "Invalid include parameter").
		Detailf("%q does not name a relationship reachable from this resource", e.Path).
		Parameter("include").
		Build()
}

// Render serializes data through v into a complete document. data may be
// nil (rendered as explicit null), a single resource map, or a slice of
// resource maps. meta, when non-nil, becomes the document meta.
func (r *Renderer) Render(v *view.Schema, ctx *view.Context, data any, meta jsonapi.Meta, opts Options) (jsonapi.Document, error) {
	doc, err := r.render(v, ctx, data, meta, opts)
	if err != nil {
		if r.obs != nil {
			r.obs.RenderFailed(v.Type())
		}
		return jsonapi.Document{}, err
	}
	return doc, nil
}

func (r *Renderer) render(v *view.Schema, ctx *view.Context, data any, meta jsonapi.Meta, opts Options) (jsonapi.Document, error) {
	b := jsonapi.NewDocument().JSONAPI().MetaAll(meta)

	resources, single, err := normalizeData(data)
	if err != nil {
		return jsonapi.Document{}, fmt.Errorf("render %q: %w", v.Type(), err)
	}

	switch {
	case resources == nil:
		b.DataNull()
	case single:
		res, err := r.resourceObject(v, ctx, resources[0], opts)
		if err != nil {
			return jsonapi.Document{}, err
		}
		b.DataResource(res).Links(&jsonapi.Links{Self: r.links.ResourceURL(v, res.ID, ctx)})
	default:
		objects := make([]jsonapi.Resource, 0, len(resources))
		for _, item := range resources {
			res, err := r.resourceObject(v, ctx, item, opts)
			if err != nil {
				return jsonapi.Document{}, err
			}
			objects = append(objects, res)
		}
		b.DataCollection(objects).Links(&jsonapi.Links{Self: r.links.CollectionURL(v, ctx)})
	}

	if len(opts.Include) > 0 && resources != nil {
		w := newIncludeWalker(r, ctx, opts)
		for _, root := range resources {
			for _, path := range opts.Include {
				if err := w.walk(v, root, strings.Split(path, "."), path); err != nil {
					return jsonapi.Document{}, err
				}
			}
		}
		b.Include(w.included...)
	}

	doc := b.Build()

	r.log.Debug().
		Str("type", v.Type()).
		Int("resources", len(resources)).
		Int("included", len(doc.Included)).
		Msg("rendered document")
	if r.obs != nil {
		r.obs.DocumentRendered(v.Type(), len(resources), len(doc.Included))
	}

	return doc, nil
}

// resourceObject builds one resource object: attributes in schema order
// gated by serializability and sparse fieldsets, relationship linkage for
// every declared relationship, and self links.
func (r *Renderer) resourceObject(v *view.Schema, ctx *view.Context, resource map[string]any, opts Options) (jsonapi.Resource, error) {
	id, err := v.ResolveID(resource)
	if err != nil {
		return jsonapi.Resource{}, err
	}

	fields := fieldSet(opts.Fields, v.Type())
	rb := jsonapi.NewResource(v.Type(), id).
		Link(r.links.ResourceURL(v, id, ctx))

	for _, attr := range v.Attributes() {
		if !attr.Serialize.Enabled() {
			continue
		}
		if fields != nil {
			if _, ok := fields[attr.Name]; !ok {
				continue
			}
		}
		rb.Attr(r.style.Encode(attr.Name), attr.Serialize.Apply(attr.Name, resource, ctx))
	}

	for _, rel := range v.Relationships() {
		if fields != nil {
			if _, ok := fields[rel.Name]; !ok {
				continue
			}
		}
		linkage, err := r.linkage(v, rel, resource)
		if err != nil {
			return jsonapi.Resource{}, err
		}
		rb.Relationship(r.style.Encode(rel.Name), jsonapi.Relationship{
			Data: linkage,
			Links: &jsonapi.Links{
				Self:    r.links.RelationshipURL(v, id, ctx, r.style.Encode(rel.Name)),
				Related: r.links.RelatedURL(v, id, ctx, r.style.Encode(rel.Name)),
			},
		})
	}

	return rb.Build(), nil
}

// linkage computes the relationship data member: identifier(s) when related
// resources are present on the input, explicit null (to-one) or [] (to-many)
// when absent.
func (r *Renderer) linkage(v *view.Schema, rel view.Relationship, resource map[string]any) (any, error) {
	target, err := v.RelatedView(rel.Name)
	if err != nil {
		return nil, err
	}

	related, err := relatedResources(resource[rel.Name])
	if err != nil {
		return nil, fmt.Errorf("view %q: relationship %q: %w", v.Type(), rel.Name, err)
	}

	if rel.Many {
		ids := make([]jsonapi.ResourceIdentifier, 0, len(related))
		for _, item := range related {
			id, err := target.ResolveID(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, jsonapi.ResourceIdentifier{Type: target.Type(), ID: id})
		}
		return ids, nil
	}

	if len(related) == 0 {
		return nil, nil
	}
	id, err := target.ResolveID(related[0])
	if err != nil {
		return nil, err
	}
	return jsonapi.ResourceIdentifier{Type: target.Type(), ID: id}, nil
}

// identity is the (type, id) dedup key for included resources.
type identity struct {
	typ string
	id  string
}

// includeWalker accumulates included resources in first-encounter order.
// The seen set doubles as the cycle guard: an already-included identity is
// never re-descended.
type includeWalker struct {
	r        *Renderer
	ctx      *view.Context
	opts     Options
	seen     map[identity]struct{}
	included []jsonapi.Resource
}

func newIncludeWalker(r *Renderer, ctx *view.Context, opts Options) *includeWalker {
	return &includeWalker{
		r:    r,
		ctx:  ctx,
		opts: opts,
		seen: make(map[identity]struct{}),
	}
}

func (w *includeWalker) walk(v *view.Schema, resource map[string]any, path []string, fullPath string) error {
	if len(path) == 0 {
		return nil
	}

	segment := path[0]
	rel, ok := v.Relationship(segment)
	if !ok {
		// The segment may name the target's resource type instead of the
		// relationship field.
		rel, ok = v.RelationshipForType(segment)
	}
	if !ok {
		return &IncludeError{Path: fullPath, Segment: segment}
	}

	target, err := v.RelatedView(rel.Name)
	if err != nil {
		return err
	}

	related, err := relatedResources(resource[rel.Name])
	if err != nil {
		return fmt.Errorf("view %q: relationship %q: %w", v.Type(), rel.Name, err)
	}

	for _, item := range related {
		id, err := target.ResolveID(item)
		if err != nil {
			return err
		}

		key := identity{typ: target.Type(), id: id}
		if _, dup := w.seen[key]; dup {
			continue
		}

		res, err := w.r.resourceObject(target, w.ctx, item, w.opts)
		if err != nil {
			return err
		}
		w.seen[key] = struct{}{}
		w.included = append(w.included, res)

		if err := w.walk(target, item, path[1:], fullPath); err != nil {
			return err
		}
	}

	return nil
}

// fieldSet returns the sparse fieldset for a type as a lookup set, or nil
// when the type is unfiltered.
func fieldSet(fields map[string][]string, typ string) map[string]struct{} {
	names, ok := fields[typ]
	if !ok {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// normalizeData coerces the caller's input graph into a resource slice.
// single distinguishes a scalar resource from a one-element collection; a
// nil slice means the logical resource is absent.
func normalizeData(data any) (resources []map[string]any, single bool, err error) {
	switch d := data.(type) {
	case nil:
		return nil, false, nil
	case map[string]any:
		if d == nil {
			return nil, false, nil
		}
		return []map[string]any{d}, true, nil
	case []map[string]any:
		if d == nil {
			d = []map[string]any{}
		}
		return d, false, nil
	case []any:
		out := make([]map[string]any, 0, len(d))
		for i, item := range d {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false, fmt.Errorf("collection element %d is %T, not a resource map", i, item)
			}
			out = append(out, m)
		}
		return out, false, nil
	default:
		return nil, false, fmt.Errorf("cannot render %T: want nil, a resource map, or a slice of resource maps", data)
	}
}

// relatedResources normalizes a relationship's underlying data into a slice.
// Absent data yields an empty slice.
func relatedResources(v any) ([]map[string]any, error) {
	switch related := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{related}, nil
	case []map[string]any:
		return related, nil
	case []any:
		out := make([]map[string]any, 0, len(related))
		for i, item := range related {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("related element %d is %T, not a resource map", i, item)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("related data is %T, not a resource map or slice", v)
	}
}
