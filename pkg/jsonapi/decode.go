package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MalformedDocumentError reports an input that is not a well-formed JSON:API
// document. It carries enough detail to build a client-facing error object.
type MalformedDocumentError struct {
	Detail  string
	Pointer string
}

func (e *MalformedDocumentError) Error() string {
	return "malformed document: " + e.Detail
}

// ErrorObject converts the failure to a 400-class error object.
func (e *MalformedDocumentError) ErrorObject() Error {
	err := Error{Title: "Malformed JSON:API document", Detail: e.Detail}
	if e.Pointer != "" {
		err.Source = &ErrorSource{Pointer: e.Pointer}
	}
	return err
}

func malformed(pointer, format string, args ...any) *MalformedDocumentError {
	return &MalformedDocumentError{Detail: fmt.Sprintf(format, args...), Pointer: pointer}
}

// Decode reads a JSON:API document from r. It is strict about the top-level
// shape: the input must be a JSON object carrying a data or errors member,
// and never both. Members absent from the input stay absent on the returned
// document; an explicit "data": null is recorded as present-and-null.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode for an in-memory payload.
func DecodeBytes(data []byte) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Document{}, malformed("", "body is not a JSON object")
	}

	rawData, hasData := top["data"]
	rawErrors, hasErrors := top["errors"]

	if !hasData && !hasErrors {
		return Document{}, malformed("", "document must contain a data or errors member")
	}
	if hasData && hasErrors {
		return Document{}, malformed("", "document must not contain both data and errors")
	}

	var doc Document

	if hasData {
		primary, err := decodePrimaryData(rawData)
		if err != nil {
			return Document{}, err
		}
		doc.SetData(primary)
	}

	if hasErrors {
		if err := json.Unmarshal(rawErrors, &doc.Errors); err != nil {
			return Document{}, malformed("/errors", "errors member is not an array of error objects")
		}
		if len(doc.Errors) == 0 {
			return Document{}, malformed("/errors", "errors member must not be empty")
		}
	}

	if raw, ok := top["included"]; ok {
		if err := json.Unmarshal(raw, &doc.Included); err != nil {
			return Document{}, malformed("/included", "included member is not an array of resource objects")
		}
	}
	if raw, ok := top["meta"]; ok {
		if err := json.Unmarshal(raw, &doc.Meta); err != nil {
			return Document{}, malformed("/meta", "meta member is not an object")
		}
	}
	if raw, ok := top["links"]; ok {
		if err := json.Unmarshal(raw, &doc.Links); err != nil {
			return Document{}, malformed("/links", "links member is not an object")
		}
	}
	if raw, ok := top["jsonapi"]; ok {
		if err := json.Unmarshal(raw, &doc.JSONAPI); err != nil {
			return Document{}, malformed("/jsonapi", "jsonapi member is not an object")
		}
	}

	return doc, nil
}

// UnmarshalJSON applies the same strict decoding as Decode.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := DecodeBytes(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// decodePrimaryData decodes the data member into nil, a Resource, or a
// []Resource depending on the JSON shape.
func decodePrimaryData(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, malformed("/data", "data member is empty")
	}

	switch trimmed[0] {
	case 'n':
		return nil, nil
	case '{':
		var res Resource
		if err := json.Unmarshal(trimmed, &res); err != nil {
			return nil, malformed("/data", "data member is not a valid resource object")
		}
		return res, nil
	case '[':
		var resources []Resource
		if err := json.Unmarshal(trimmed, &resources); err != nil {
			return nil, malformed("/data", "data member is not a valid resource object array")
		}
		return resources, nil
	default:
		return nil, malformed("/data", "data member must be an object, array, or null")
	}
}

// UnmarshalJSON decodes a relationship, typing its data member as a
// ResourceIdentifier, []ResourceIdentifier, or nil so callers can switch on
// it without re-parsing.
func (rel *Relationship) UnmarshalJSON(data []byte) error {
	var wire struct {
		Data  json.RawMessage `json:"data"`
		Links *Links          `json:"links"`
		Meta  Meta            `json:"meta"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	rel.Links = wire.Links
	rel.Meta = wire.Meta
	rel.Data = nil

	trimmed := bytes.TrimSpace(wire.Data)
	if len(trimmed) == 0 || trimmed[0] == 'n' {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var id ResourceIdentifier
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		rel.Data = id
	case '[':
		var ids []ResourceIdentifier
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return err
		}
		rel.Data = ids
	default:
		return malformed("", "relationship data must be an object, array, or null")
	}
	return nil
}
