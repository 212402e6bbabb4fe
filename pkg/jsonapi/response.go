package jsonapi

import (
	"encoding/json"
	"net/http"
)

// WriteDocument writes a JSON:API document to the response.
func WriteDocument(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

// WriteResource writes a single resource response.
func WriteResource(w http.ResponseWriter, status int, r Resource) {
	WriteDocument(w, status, NewSingleResourceDocument(r))
}

// WriteCollection writes a collection response.
func WriteCollection(w http.ResponseWriter, status int, resources []Resource) {
	WriteDocument(w, status, NewCollectionDocument(resources))
}

// WriteError writes an error response for the given transport status. Error
// status/title fields are normalized to the transport status via
// ErrorDocument.
func WriteError(w http.ResponseWriter, status int, errs ...Error) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteDocument(w, status, ErrorDocument(status, errs...))
}

// WriteCreated writes a 201 Created response with the document and optional
// Location header.
func WriteCreated(w http.ResponseWriter, doc Document, location string) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	WriteDocument(w, http.StatusCreated, doc)
}

// WriteNoContent writes a 204 No Content response (typically for DELETE).
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteErrorFromGo converts a Go error to a 500 JSON:API error response.
func WriteErrorFromGo(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, ErrFromError(err))
}
