package jsonapi

// ResourceBuilder provides a fluent API for building Resource objects.
type ResourceBuilder struct {
	resource Resource
}

// NewResource creates a new ResourceBuilder with the given type and ID.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type: resourceType,
			ID:   id,
		},
	}
}

// Attr adds an attribute to the resource.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	if b.resource.Attributes == nil {
		b.resource.Attributes = make(map[string]any)
	}
	b.resource.Attributes[key] = value
	return b
}

// Attrs adds multiple attributes to the resource. The structural id and type
// keys are skipped.
func (b *ResourceBuilder) Attrs(attrs map[string]any) *ResourceBuilder {
	for k, v := range attrs {
		if k == "id" || k == "type" {
			continue
		}
		b.Attr(k, v)
	}
	return b
}

// Relationship adds a relationship to the resource.
func (b *ResourceBuilder) Relationship(name string, rel Relationship) *ResourceBuilder {
	if b.resource.Relationships == nil {
		b.resource.Relationships = make(map[string]Relationship)
	}
	b.resource.Relationships[name] = rel
	return b
}

// ToOne adds a to-one relationship. An empty id yields explicit null linkage.
func (b *ResourceBuilder) ToOne(name, relType, relID string) *ResourceBuilder {
	rel := Relationship{}
	if relID != "" {
		rel.Data = ResourceIdentifier{Type: relType, ID: relID}
	}
	return b.Relationship(name, rel)
}

// ToMany adds a to-many relationship. A nil slice yields empty [] linkage.
func (b *ResourceBuilder) ToMany(name string, identifiers []ResourceIdentifier) *ResourceBuilder {
	if identifiers == nil {
		identifiers = []ResourceIdentifier{}
	}
	return b.Relationship(name, Relationship{Data: identifiers})
}

// Meta adds metadata to the resource.
func (b *ResourceBuilder) Meta(key string, value any) *ResourceBuilder {
	if b.resource.Meta == nil {
		b.resource.Meta = make(Meta)
	}
	b.resource.Meta[key] = value
	return b
}

// Link sets the self link for the resource.
func (b *ResourceBuilder) Link(self string) *ResourceBuilder {
	b.resource.Links = &ResourceLinks{Self: self}
	return b
}

// Build returns the constructed Resource.
func (b *ResourceBuilder) Build() Resource {
	return b.resource
}
