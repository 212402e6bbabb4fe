// Package jsonapi provides the JSON:API wire document model: typed
// structures for documents, resource objects, relationships, and errors,
// with strict encoding/decoding of the interchange format.
// See https://jsonapi.org for the full specification.
package jsonapi

import "encoding/json"

// Document represents a JSON:API top-level document. Exactly one of Data or
// Errors is populated, never both. The null/absent distinction for the data
// member is part of the wire contract: an error document omits data, while a
// document whose logical resource is absent carries an explicit null. Use
// SetData (or the DocumentBuilder) so that distinction is recorded.
type Document struct {
	Data     any
	Errors   []Error
	Meta     Meta
	Links    *Links
	Included []Resource
	JSONAPI  *JSONAPI

	// hasData records that Data was set explicitly, so marshaling can emit
	// "data": null instead of omitting the member.
	hasData bool
}

// SetData sets the primary data and marks it present, even when v is nil.
func (d *Document) SetData(v any) {
	d.Data = v
	d.hasData = true
}

// HasData reports whether the data member is logically present.
func (d *Document) HasData() bool {
	return d.hasData || d.Data != nil
}

// Resource represents a JSON:API resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         *ResourceLinks          `json:"links,omitempty"`
	Meta          Meta                    `json:"meta,omitempty"`
}

// Identifier returns the (type, id) identity of the resource.
func (r Resource) Identifier() ResourceIdentifier {
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// ResourceIdentifier represents a resource linkage (type + id only, never
// attributes).
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Meta Meta   `json:"meta,omitempty"`
}

// Relationship represents a relationship to one or more resources. Data is
// always emitted, as null for an empty to-one and [] for an empty to-many.
type Relationship struct {
	Data  any    `json:"data"` // ResourceIdentifier, []ResourceIdentifier, or nil
	Links *Links `json:"links,omitempty"`
	Meta  Meta   `json:"meta,omitempty"`
}

// Links represents navigation links.
type Links struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related,omitempty"`
}

// ResourceLinks represents links within a resource object.
type ResourceLinks struct {
	Self string `json:"self,omitempty"`
}

// Error represents a JSON:API error object.
type Error struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// ErrorSource indicates the source of an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`   // JSON pointer to offending field
	Parameter string `json:"parameter,omitempty"` // Query parameter that caused error
	Header    string `json:"header,omitempty"`    // Header that caused error
}

// Meta represents arbitrary metadata.
type Meta map[string]any

// JSONAPI represents the JSON:API version object.
type JSONAPI struct {
	Version string `json:"version"`
	Meta    Meta   `json:"meta,omitempty"`
}

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// Version is the JSON:API specification version.
const Version = "1.0"

// documentWire is the marshaling shape of Document. Data is a pointer so a
// present-but-null data member survives omitempty.
type documentWire struct {
	Data     *any       `json:"data,omitempty"`
	Errors   []Error    `json:"errors,omitempty"`
	Meta     Meta       `json:"meta,omitempty"`
	Links    *Links     `json:"links,omitempty"`
	Included []Resource `json:"included,omitempty"`
	JSONAPI  *JSONAPI   `json:"jsonapi,omitempty"`
}

// MarshalJSON emits the document with absent members omitted, except data,
// which is emitted as explicit null whenever it is logically present.
func (d Document) MarshalJSON() ([]byte, error) {
	w := documentWire{
		Errors:   d.Errors,
		Meta:     d.Meta,
		Links:    d.Links,
		Included: d.Included,
		JSONAPI:  d.JSONAPI,
	}
	if d.HasData() {
		data := d.Data
		w.Data = &data
	}
	return json.Marshal(w)
}
