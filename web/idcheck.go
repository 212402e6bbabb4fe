package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/apiview/pkg/jsonapi"
)

// IDCheckError is a client protocol violation found by CheckDataID. Its
// status and title are fixed by the update-request contract and are written
// verbatim, independent of the error responder's normalization.
type IDCheckError struct {
	Status  int
	Title   string
	Pointer string
}

func (e *IDCheckError) Error() string {
	return e.Title
}

// Document builds the error document for the violation.
func (e *IDCheckError) Document() jsonapi.Document {
	err := jsonapi.Error{
		Status: strconv.Itoa(e.Status),
		Title:  e.Title,
	}
	if e.Pointer != "" {
		err.Source = &jsonapi.ErrorSource{Pointer: e.Pointer}
	}
	return jsonapi.NewErrorDocument(err)
}

// CheckDataID enforces the id-consistency rule for update requests: the
// body's data.id, if the data member is present, must be a string equal to
// the path-derived id. The body is inspected as raw JSON so a non-string id
// can be told apart from a missing one.
func CheckDataID(body []byte, pathID string) *IDCheckError {
	var top struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &top); err != nil || len(top.Data) == 0 {
		// Not an object, or no data member: nothing for this gate to check;
		// the document decoder reports malformed bodies.
		return nil
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(top.Data, &data); err != nil {
		return nil
	}

	rawID, ok := data["id"]
	if !ok {
		return &IDCheckError{
			Status:  http.StatusBadRequest,
			Title:   "Missing id in data parameter",
			Pointer: "/data/id",
		}
	}

	var id string
	if err := json.Unmarshal(rawID, &id); err != nil {
		return &IDCheckError{
			Status: http.StatusUnprocessableEntity,
			Title:  "Malformed id in data parameter",
		}
	}

	if id != pathID {
		return &IDCheckError{
			Status: http.StatusConflict,
			Title:  "Mismatched id parameter",
		}
	}

	return nil
}

// RequireMatchingID is the middleware form of CheckDataID for PATCH routes.
// It buffers the body so downstream handlers can re-read it.
func RequireMatchingID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			jsonapi.WriteError(w, http.StatusBadRequest, jsonapi.ErrBadRequest("cannot read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if violation := CheckDataID(body, chi.URLParam(r, "id")); violation != nil {
			jsonapi.WriteDocument(w, violation.Status, violation.Document())
			return
		}

		next.ServeHTTP(w, r)
	})
}
