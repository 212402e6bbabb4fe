// Package view defines declarative resource views: the schema binding a
// resource type to its id, attribute, and relationship rules. Views are
// built and validated once at startup, registered by type, and read-only
// thereafter.
package view

import (
	"fmt"
	"strconv"
	"strings"
)

// Context carries per-request rendering state. Transforms receive it
// alongside the resource; the link builder reads the connection fields as
// overrides for its configured defaults.
type Context struct {
	// Scheme, Host, and Port describe the live connection, when one exists.
	// Zero values mean "no override"; with neither context nor configured
	// values, generated URLs degrade to path-only.
	Scheme string
	Host   string
	Port   int

	// Values holds opaque request-scoped data for transform functions.
	Values map[string]any
}

// TransformFunc computes a field value from the resource and the request
// context. On serialize the resource is the caller's input map; on
// deserialize it is the decoded attribute map with canonical field names.
type TransformFunc func(resource map[string]any, ctx *Context) any

type ruleMode int

const (
	ruleAlways ruleMode = iota
	ruleNever
	ruleTransform
)

// Rule controls whether and how a field participates in serialization or
// deserialization. The zero value is Always.
type Rule struct {
	mode ruleMode
	fn   TransformFunc
}

// Always includes the field, reading it directly from the resource.
func Always() Rule { return Rule{mode: ruleAlways} }

// Never excludes the field.
func Never() Rule { return Rule{mode: ruleNever} }

// Transform includes the field, computing its value with fn.
func Transform(fn TransformFunc) Rule { return Rule{mode: ruleTransform, fn: fn} }

// Enabled reports whether the field participates at all.
func (r Rule) Enabled() bool { return r.mode != ruleNever }

// Apply evaluates the rule for one field of one resource. For Always rules
// the raw field value is read from the resource map.
func (r Rule) Apply(name string, resource map[string]any, ctx *Context) any {
	if r.mode == ruleTransform {
		return r.fn(resource, ctx)
	}
	return resource[name]
}

// Attribute declares one serializable/deserializable field.
type Attribute struct {
	// Name is the canonical (underscore-style) field name.
	Name string

	// Serialize controls rendering of this attribute. Zero value: Always.
	Serialize Rule

	// Deserialize controls parsing of this attribute. Zero value: Always.
	Deserialize Rule
}

// Relationship declares a link to another view.
type Relationship struct {
	// Name is the canonical relationship name.
	Name string

	// Many is true for to-many relationships.
	Many bool

	// TargetView names the view the relationship points at. Resolution is
	// lazy so mutually recursive views can register in any order.
	TargetView string
}

// Config is the raw, unvalidated description of a view.
type Config struct {
	// Type is the JSON:API resource type. Required, globally unique.
	Type string

	// IDField is the resource field the id is derived from. Default "id".
	IDField string

	// Path overrides the URL path segment. Default: Type.
	Path string

	// Attributes in declaration order.
	Attributes []Attribute

	// Relationships in declaration order.
	Relationships []Relationship
}

// Schema is a validated, immutable view. Safe for unsynchronized concurrent
// reads once built.
type Schema struct {
	typ           string
	idField       string
	path          string
	attributes    []Attribute
	relationships []Relationship

	attrIndex map[string]int
	relIndex  map[string]int

	// reg is set when the schema is registered and backs lazy relationship
	// resolution.
	reg *Registry
}

// ValidationError reports everything wrong with a view config. Schema errors
// are configuration bugs; callers treat them as fatal at startup.
type ValidationError struct {
	Type     string
	Problems []string
}

func (e *ValidationError) Error() string {
	name := e.Type
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("view %q: invalid definition:\n  - %s", name, strings.Join(e.Problems, "\n  - "))
}

// Build validates a config and returns an immutable schema. Build never
// returns a partially usable schema: any problem yields a nil schema and a
// *ValidationError listing every issue found.
func Build(cfg Config) (*Schema, error) {
	var problems []string

	if cfg.Type == "" {
		problems = append(problems, "type is required")
	}

	idField := cfg.IDField
	if idField == "" {
		idField = "id"
	}

	attrIndex := make(map[string]int, len(cfg.Attributes))
	for i, a := range cfg.Attributes {
		switch {
		case a.Name == "":
			problems = append(problems, fmt.Sprintf("attributes[%d]: name is required", i))
		case a.Name == "id" || a.Name == "type":
			problems = append(problems, fmt.Sprintf("attribute %q: id and type are structural fields, not attributes", a.Name))
		default:
			if _, dup := attrIndex[a.Name]; dup {
				problems = append(problems, fmt.Sprintf("attribute %q declared twice", a.Name))
			}
			attrIndex[a.Name] = i
		}
	}

	relIndex := make(map[string]int, len(cfg.Relationships))
	for i, r := range cfg.Relationships {
		switch {
		case r.Name == "":
			problems = append(problems, fmt.Sprintf("relationships[%d]: name is required", i))
		case r.Name == "id" || r.Name == "type":
			problems = append(problems, fmt.Sprintf("relationship %q: id and type are structural fields, not relationships", r.Name))
		default:
			if _, dup := attrIndex[r.Name]; dup {
				problems = append(problems, fmt.Sprintf("%q declared as both attribute and relationship", r.Name))
			}
			if _, dup := relIndex[r.Name]; dup {
				problems = append(problems, fmt.Sprintf("relationship %q declared twice", r.Name))
			}
			relIndex[r.Name] = i
		}
		if r.Name != "" && r.TargetView == "" {
			problems = append(problems, fmt.Sprintf("relationship %q: target view is required", r.Name))
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Type: cfg.Type, Problems: problems}
	}

	path := cfg.Path
	if path == "" {
		path = cfg.Type
	}

	attrs := make([]Attribute, len(cfg.Attributes))
	copy(attrs, cfg.Attributes)
	rels := make([]Relationship, len(cfg.Relationships))
	copy(rels, cfg.Relationships)

	return &Schema{
		typ:           cfg.Type,
		idField:       idField,
		path:          path,
		attributes:    attrs,
		relationships: rels,
		attrIndex:     attrIndex,
		relIndex:      relIndex,
	}, nil
}

// MustBuild is Build for startup wiring; it panics on invalid configs.
func MustBuild(cfg Config) *Schema {
	s, err := Build(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Type returns the JSON:API resource type.
func (s *Schema) Type() string { return s.typ }

// IDField returns the field the resource id is derived from.
func (s *Schema) IDField() string { return s.idField }

// Path returns the URL path segment for this view.
func (s *Schema) Path() string { return s.path }

// Attributes returns the declared attributes in declaration order. The
// returned slice must not be modified.
func (s *Schema) Attributes() []Attribute { return s.attributes }

// Relationships returns the declared relationships in declaration order.
// The returned slice must not be modified.
func (s *Schema) Relationships() []Relationship { return s.relationships }

// Relationship returns the named relationship.
func (s *Schema) Relationship(name string) (Relationship, bool) {
	i, ok := s.relIndex[name]
	if !ok {
		return Relationship{}, false
	}
	return s.relationships[i], true
}

// IsSerializable reports whether the named attribute renders.
func (s *Schema) IsSerializable(name string) bool {
	i, ok := s.attrIndex[name]
	return ok && s.attributes[i].Serialize.Enabled()
}

// IsDeserializable reports whether the named attribute parses.
func (s *Schema) IsDeserializable(name string) bool {
	i, ok := s.attrIndex[name]
	return ok && s.attributes[i].Deserialize.Enabled()
}

// ResolveID derives the resource id. A missing or empty id is an error: a
// resource cannot be serialized without one.
func (s *Schema) ResolveID(resource map[string]any) (string, error) {
	v, ok := resource[s.idField]
	if !ok || v == nil {
		return "", fmt.Errorf("view %q: resource has no %q field", s.typ, s.idField)
	}
	id, err := stringifyID(v)
	if err != nil {
		return "", fmt.Errorf("view %q: field %q: %w", s.typ, s.idField, err)
	}
	if id == "" {
		return "", fmt.Errorf("view %q: field %q is empty", s.typ, s.idField)
	}
	return id, nil
}

// RelatedView resolves the target view of the named relationship through the
// registry the schema was registered with. Unresolved targets fail loudly on
// first use.
func (s *Schema) RelatedView(name string) (*Schema, error) {
	rel, ok := s.Relationship(name)
	if !ok {
		return nil, fmt.Errorf("view %q: no relationship %q", s.typ, name)
	}
	if s.reg == nil {
		return nil, fmt.Errorf("view %q: not registered; cannot resolve relationship %q", s.typ, name)
	}
	target, ok := s.reg.Get(rel.TargetView)
	if !ok {
		return nil, fmt.Errorf("view %q: relationship %q targets unregistered view %q", s.typ, name, rel.TargetView)
	}
	return target, nil
}

// RelationshipForType reverse-looks-up the relationship whose target view
// serializes the given resource type. Used when resolving include paths that
// name a type rather than a relationship.
func (s *Schema) RelationshipForType(typ string) (Relationship, bool) {
	if s.reg == nil {
		return Relationship{}, false
	}
	for _, rel := range s.relationships {
		target, ok := s.reg.Get(rel.TargetView)
		if ok && target.typ == typ {
			return rel, true
		}
	}
	return Relationship{}, false
}

// stringifyID converts the common id representations to their canonical
// string form.
func stringifyID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case int:
		return strconv.Itoa(id), nil
	case int32:
		return strconv.FormatInt(int64(id), 10), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case uint64:
		return strconv.FormatUint(id, 10), nil
	case float64:
		// JSON numbers decode as float64; ids are whole values.
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case fmt.Stringer:
		return id.String(), nil
	default:
		return "", fmt.Errorf("cannot derive id from %T value", v)
	}
}
