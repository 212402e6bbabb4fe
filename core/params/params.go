// Package params reconstructs flat parameter maps from inbound JSON:API
// documents, guided by the originating view. The output is suitable for
// persistence-layer consumption: attribute values keyed by canonical field
// name, relationships as resource identifiers.
package params

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/apiview/core/casing"
	"github.com/artpar/apiview/core/view"
	"github.com/artpar/apiview/pkg/jsonapi"
)

// Error describes why a document cannot be deserialized. It carries the
// source pointer and a human title so the caller can build an error object.
type Error struct {
	Detail  string
	Pointer string
}

func (e *Error) Error() string {
	return "deserialize: " + e.Detail
}

// ErrorObject converts the failure to a 422-class error object.
func (e *Error) ErrorObject() jsonapi.Error {
	err := jsonapi.NewError(422, "invalid_document", "Invalid document").
		Detail(e.Detail).
		Build()
	if e.Pointer != "" {
		err.Source = &jsonapi.ErrorSource{Pointer: e.Pointer}
	}
	return err
}

// Observer receives parse outcomes. A nil observer disables observation.
type Observer interface {
	DocumentParsed(resourceType string, fields int)
}

// Config wires a Parser.
type Config struct {
	Style    casing.Style
	Logger   zerolog.Logger
	Observer Observer
}

// Parser deserializes documents into parameter maps. It holds only immutable
// state and is safe for concurrent use.
type Parser struct {
	style casing.Style
	log   zerolog.Logger
	obs   Observer
}

// New creates a Parser.
func New(cfg Config) *Parser {
	style := cfg.Style
	if style == "" {
		style = casing.Default
	}
	return &Parser{style: style, log: cfg.Logger, obs: cfg.Observer}
}

// Params deserializes a single-resource document through v. Wire keys are
// case-decoded to canonical names; keys the schema does not declare are
// silently skipped, as are attributes whose deserialize rule is Never.
// Relationships deserialize to their resource-identifier form, never to
// resolved objects.
func (p *Parser) Params(v *view.Schema, ctx *view.Context, doc jsonapi.Document) (map[string]any, error) {
	res, err := primaryResource(doc)
	if err != nil {
		return nil, err
	}

	// Decode every wire attribute up front so deserialize transforms see
	// the full canonical attribute map.
	attrs := make(map[string]any, len(res.Attributes))
	for key, val := range res.Attributes {
		attrs[p.style.Decode(key)] = val
	}

	out := make(map[string]any, len(attrs)+len(res.Relationships)+1)
	if res.ID != "" {
		out["id"] = res.ID
	}

	for _, attr := range v.Attributes() {
		if _, present := attrs[attr.Name]; !present {
			continue
		}
		if !attr.Deserialize.Enabled() {
			continue
		}
		out[attr.Name] = attr.Deserialize.Apply(attr.Name, attrs, ctx)
	}

	for key, rel := range res.Relationships {
		name := p.style.Decode(key)
		decl, ok := v.Relationship(name)
		if !ok {
			continue
		}
		linkage, err := identifiers(decl, rel.Data)
		if err != nil {
			return nil, &Error{
				Detail:  err.Error(),
				Pointer: "/data/relationships/" + key,
			}
		}
		out[name] = linkage
	}

	p.log.Debug().
		Str("type", v.Type()).
		Int("fields", len(out)).
		Msg("parsed document")
	if p.obs != nil {
		p.obs.DocumentParsed(v.Type(), len(out))
	}

	return out, nil
}

// primaryResource enforces single-resource semantics on the document's data
// member.
func primaryResource(doc jsonapi.Document) (jsonapi.Resource, error) {
	if !doc.HasData() {
		return jsonapi.Resource{}, &Error{Detail: "document has no data member", Pointer: "/data"}
	}
	switch data := doc.Data.(type) {
	case jsonapi.Resource:
		return data, nil
	case []jsonapi.Resource:
		return jsonapi.Resource{}, &Error{Detail: "data must be a single resource object, not a collection", Pointer: "/data"}
	case nil:
		return jsonapi.Resource{}, &Error{Detail: "data must be a resource object, not null", Pointer: "/data"}
	default:
		return jsonapi.Resource{}, &Error{Detail: fmt.Sprintf("data must be a resource object, got %T", data), Pointer: "/data"}
	}
}

// identifiers normalizes relationship linkage against the declared
// cardinality. To-one yields *jsonapi.ResourceIdentifier (nil for explicit
// null); to-many yields []jsonapi.ResourceIdentifier.
func identifiers(decl view.Relationship, data any) (any, error) {
	if decl.Many {
		switch linkage := data.(type) {
		case nil:
			return []jsonapi.ResourceIdentifier{}, nil
		case []jsonapi.ResourceIdentifier:
			return linkage, nil
		case jsonapi.ResourceIdentifier:
			return nil, fmt.Errorf("relationship %q is to-many but carries a single identifier", decl.Name)
		default:
			return nil, fmt.Errorf("relationship %q carries unexpected linkage %T", decl.Name, data)
		}
	}

	switch linkage := data.(type) {
	case nil:
		return (*jsonapi.ResourceIdentifier)(nil), nil
	case jsonapi.ResourceIdentifier:
		return &linkage, nil
	case []jsonapi.ResourceIdentifier:
		return nil, fmt.Errorf("relationship %q is to-one but carries an identifier array", decl.Name)
	default:
		return nil, fmt.Errorf("relationship %q carries unexpected linkage %T", decl.Name, data)
	}
}
