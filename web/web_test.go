package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/apiview/adapters/idgen"
	"github.com/artpar/apiview/adapters/memory"
	"github.com/artpar/apiview/core/casing"
	"github.com/artpar/apiview/core/link"
	"github.com/artpar/apiview/core/params"
	"github.com/artpar/apiview/core/render"
	"github.com/artpar/apiview/core/view"
	"github.com/artpar/apiview/pkg/jsonapi"
)

type fixture struct {
	handler *Handler
	store   *memory.ResourceStore
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := view.NewRegistry()
	reg.MustRegister(view.MustBuild(view.Config{
		Type: "user",
		Attributes: []view.Attribute{
			{Name: "first_name"},
			{Name: "last_name"},
		},
		Relationships: []view.Relationship{
			{Name: "posts", Many: true, TargetView: "post"},
		},
	}))
	reg.MustRegister(view.MustBuild(view.Config{
		Type: "post",
		Attributes: []view.Attribute{
			{Name: "title"},
		},
		Relationships: []view.Relationship{
			{Name: "author", TargetView: "user"},
		},
	}))

	store := memory.NewResourceStore(idgen.NewSequential("r"))
	style := casing.Camelize
	logger := zerolog.Nop()

	renderer := render.New(render.Config{
		Views:  reg,
		Links:  &link.Builder{},
		Style:  style,
		Logger: logger,
	})
	parser := params.New(params.Config{Style: style, Logger: logger})

	h := New(Config{
		Views:    reg,
		Renderer: renderer,
		Parser:   parser,
		Store:    store,
		Style:    style,
		Logger:   logger,
	})

	return &fixture{handler: h, store: store, router: h.Routes()}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", jsonapi.ContentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) jsonapi.Document {
	t.Helper()
	var doc jsonapi.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), "body: %s", w.Body.String())
	return doc
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/user", `{
		"data": {"type": "user", "attributes": {"firstName": "Ada", "lastName": "Lovelace"}}
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, jsonapi.ContentType, w.Header().Get("Content-Type"))

	doc := decodeResponse(t, w)
	res, ok := doc.Data.(jsonapi.Resource)
	require.True(t, ok)
	assert.Equal(t, "user", res.Type)
	assert.Equal(t, "r1", res.ID)
	assert.Equal(t, "Ada", res.Attributes["firstName"])

	t.Run("location header points at the resource", func(t *testing.T) {
		assert.Contains(t, w.Header().Get("Location"), "/user/r1")
	})

	t.Run("fetch it back", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/user/r1", "")
		require.Equal(t, http.StatusOK, w.Code)
		doc := decodeResponse(t, w)
		res := doc.Data.(jsonapi.Resource)
		assert.Equal(t, "Lovelace", res.Attributes["lastName"])
	})
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "user", map[string]any{"first_name": "Ada"})
	require.NoError(t, err)
	_, err = f.store.Create(ctx, "user", map[string]any{"first_name": "Grace"})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/user", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc := decodeResponse(t, w)
	resources, ok := doc.Data.([]jsonapi.Resource)
	require.True(t, ok)
	require.Len(t, resources, 2)
	assert.Equal(t, "Ada", resources[0].Attributes["firstName"])
	assert.Equal(t, "Grace", resources[1].Attributes["firstName"])
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.store.Create(ctx, "user", map[string]any{"first_name": "Ada", "last_name": "L"})
	require.NoError(t, err)
	id := created["id"].(string)

	w := f.do(t, http.MethodPatch, "/user/"+id, `{
		"data": {"type": "user", "id": "`+id+`", "attributes": {"lastName": "Lovelace"}}
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := decodeResponse(t, w)
	res := doc.Data.(jsonapi.Resource)
	assert.Equal(t, "Lovelace", res.Attributes["lastName"])
	assert.Equal(t, "Ada", res.Attributes["firstName"])

	t.Run("id mismatch is rejected before the store is touched", func(t *testing.T) {
		w := f.do(t, http.MethodPatch, "/user/"+id, `{
			"data": {"type": "user", "id": "other", "attributes": {"lastName": "X"}}
		}`)
		assert.Equal(t, http.StatusConflict, w.Code)

		stored, err := f.store.Get(ctx, "user", id)
		require.NoError(t, err)
		assert.Equal(t, "Lovelace", stored["last_name"])
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.store.Create(ctx, "user", map[string]any{"first_name": "Ada"})
	require.NoError(t, err)
	id := created["id"].(string)

	w := f.do(t, http.MethodDelete, "/user/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = f.do(t, http.MethodGet, "/user/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIncludeQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author, err := f.store.Create(ctx, "user", map[string]any{"first_name": "Ada"})
	require.NoError(t, err)
	post, err := f.store.Create(ctx, "post", map[string]any{
		"title":  "Engines",
		"author": map[string]any{"type": "user", "id": author["id"]},
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/post/"+post["id"].(string)+"?include=author", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := decodeResponse(t, w)
	require.Len(t, doc.Included, 1)
	assert.Equal(t, "user", doc.Included[0].Type)
	assert.Equal(t, "Ada", doc.Included[0].Attributes["firstName"])

	t.Run("unknown include path is a 400", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/post/"+post["id"].(string)+"?include=reviews", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		doc := decodeResponse(t, w)
		require.Len(t, doc.Errors, 1)
		require.NotNil(t, doc.Errors[0].Source)
		assert.Equal(t, "include", doc.Errors[0].Source.Parameter)
	})
}

func TestSparseFieldsQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.store.Create(ctx, "user", map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/user/"+created["id"].(string)+"?fields[user]=firstName", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc := decodeResponse(t, w)
	res := doc.Data.(jsonapi.Resource)
	assert.Equal(t, "Ada", res.Attributes["firstName"])
	_, present := res.Attributes["lastName"]
	assert.False(t, present)
}

func TestContentNegotiation(t *testing.T) {
	f := newFixture(t)

	t.Run("wrong content type is a 415", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("media type parameters are tolerated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader(`{
			"data": {"type": "user", "attributes": {"firstName": "Ada"}}
		}`))
		req.Header.Set("Content-Type", jsonapi.ContentType+"; charset=utf-8")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestFailureMapping(t *testing.T) {
	f := newFixture(t)

	t.Run("unknown view path is a 404", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/ghosts", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown resource id is a 404 with normalized title", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/user/missing", "")
		require.Equal(t, http.StatusNotFound, w.Code)

		doc := decodeResponse(t, w)
		require.Len(t, doc.Errors, 1)
		assert.Equal(t, "404", doc.Errors[0].Status)
		assert.Equal(t, "Not Found", doc.Errors[0].Title)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/user", `{"meta": {}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("collection body on create is a 422", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/user", `{"data": [{"type": "user"}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRequestContext(t *testing.T) {
	t.Run("host header drives link generation", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/user", `{
			"data": {"type": "user", "attributes": {"firstName": "Ada"}}
		}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://example.com/"),
			"Location = %s", w.Header().Get("Location"))
	})

	t.Run("forwarded headers win", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set("X-Forwarded-Host", "public.example.org")
		req.Header.Set("X-Forwarded-Proto", "https")

		ctx := requestContext(req)
		assert.Equal(t, "public.example.org", ctx.Host)
		assert.Equal(t, "https", ctx.Scheme)
	})

	t.Run("port is split from the host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Host = "localhost:8080"

		ctx := requestContext(req)
		assert.Equal(t, "localhost", ctx.Host)
		assert.Equal(t, 8080, ctx.Port)
	})
}
