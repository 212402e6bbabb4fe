// Package web exposes registered views as JSON:API endpoints over chi. It is
// the request-handling collaborator around the engine: it negotiates content
// types, runs the id-consistency gate, hands query directives to the
// renderer, and maps engine failures to transport statuses.
package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/apiview/adapters/metrics"
	"github.com/artpar/apiview/core/casing"
	"github.com/artpar/apiview/core/params"
	"github.com/artpar/apiview/core/render"
	"github.com/artpar/apiview/core/view"
	"github.com/artpar/apiview/pkg/jsonapi"
	"github.com/artpar/apiview/ports"
)

// Config wires a Handler.
type Config struct {
	Views    *view.Registry
	Renderer *render.Renderer
	Parser   *params.Parser
	Store    ports.ResourceStore
	Style    casing.Style
	Logger   zerolog.Logger
	Metrics  *metrics.Collector
}

// Handler serves the generic resource endpoints.
type Handler struct {
	views    *view.Registry
	renderer *render.Renderer
	parser   *params.Parser
	store    ports.ResourceStore
	style    casing.Style
	logger   zerolog.Logger
	metrics  *metrics.Collector
}

// New creates a Handler.
func New(cfg Config) *Handler {
	style := cfg.Style
	if style == "" {
		style = casing.Default
	}
	return &Handler{
		views:    cfg.Views,
		renderer: cfg.Renderer,
		parser:   cfg.Parser,
		store:    cfg.Store,
		style:    style,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Routes returns the resource routes, one CRUD set per registered view path.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.observe)

	r.Route("/{view}", func(r chi.Router) {
		r.Get("/", h.list)
		r.With(requireContentType).Post("/", h.create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.With(requireContentType, RequireMatchingID).Patch("/", h.update)
			r.Delete("/", h.remove)
		})
	})

	return r
}

// observe records request metrics when a collector is configured.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		segment := chi.URLParamFromCtx(r.Context(), "view")
		h.metrics.RequestsTotal.WithLabelValues(r.Method, segment, strconv.Itoa(ww.status)).Inc()
		h.metrics.RequestDuration.WithLabelValues(r.Method, segment).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requireContentType rejects write requests without the JSON:API media type.
func requireContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if mediaType(ct) != jsonapi.ContentType {
			jsonapi.WriteError(w, http.StatusUnsupportedMediaType, jsonapi.ErrUnsupportedMediaType(ct))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

// viewFor resolves the URL path segment to its registered view.
func (h *Handler) viewFor(w http.ResponseWriter, r *http.Request) (*view.Schema, bool) {
	segment := chi.URLParam(r, "view")
	v, ok := h.views.GetByPath(segment)
	if !ok {
		jsonapi.WriteError(w, http.StatusNotFound, jsonapi.ErrNotFound(segment))
		return nil, false
	}
	return v, true
}

// requestContext derives the per-request connection context used for link
// generation and transforms.
func requestContext(r *http.Request) *view.Context {
	ctx := &view.Context{}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		if port, err := strconv.Atoi(host[i+1:]); err == nil {
			ctx.Port = port
			host = host[:i]
		}
	}
	ctx.Host = host

	switch {
	case r.Header.Get("X-Forwarded-Proto") != "":
		ctx.Scheme = r.Header.Get("X-Forwarded-Proto")
	case r.TLS != nil:
		ctx.Scheme = "https"
	default:
		ctx.Scheme = "http"
	}

	return ctx
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	opts, err := h.renderOptions(r)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resources, err := h.store.List(r.Context(), v.Type())
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	for _, res := range resources {
		if err := h.resolveGraph(r.Context(), v, res, opts.Include); err != nil {
			h.writeFailure(w, err)
			return
		}
	}

	doc, err := h.renderer.Render(v, requestContext(r), resources, nil, opts)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	jsonapi.WriteDocument(w, http.StatusOK, doc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	opts, err := h.renderOptions(r)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	res, err := h.store.Get(r.Context(), v.Type(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if err := h.resolveGraph(r.Context(), v, res, opts.Include); err != nil {
		h.writeFailure(w, err)
		return
	}

	doc, err := h.renderer.Render(v, requestContext(r), res, nil, opts)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	jsonapi.WriteDocument(w, http.StatusOK, doc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	fields, ok := h.decodeParams(w, r, v)
	if !ok {
		return
	}

	res, err := h.store.Create(r.Context(), v.Type(), fields)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	ctx := requestContext(r)
	doc, err := h.renderer.Render(v, ctx, res, nil, render.Options{})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	id, _ := res["id"].(string)
	location := ""
	if id != "" {
		location = h.renderer.ResourceURL(v, id, ctx)
	}
	jsonapi.WriteCreated(w, doc, location)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	fields, ok := h.decodeParams(w, r, v)
	if !ok {
		return
	}
	delete(fields, "id")

	res, err := h.store.Update(r.Context(), v.Type(), chi.URLParam(r, "id"), fields)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	doc, err := h.renderer.Render(v, requestContext(r), res, nil, render.Options{})
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	jsonapi.WriteDocument(w, http.StatusOK, doc)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), v.Type(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, err)
		return
	}
	jsonapi.WriteNoContent(w)
}

// decodeParams decodes the request body strictly and deserializes it through
// the view. Relationship identifiers are flattened to storable maps.
func (h *Handler) decodeParams(w http.ResponseWriter, r *http.Request, v *view.Schema) (map[string]any, bool) {
	doc, err := jsonapi.Decode(r.Body)
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}

	fields, err := h.parser.Params(v, requestContext(r), doc)
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}

	return storableFields(fields), true
}

// writeFailure maps engine failures to transport statuses. Status and title
// of the emitted error objects are normalized from the chosen status.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var malformedErr *jsonapi.MalformedDocumentError
	var includeErr *render.IncludeError
	var paramsErr *params.Error

	switch {
	case errors.Is(err, ports.ErrNotFound):
		jsonapi.WriteError(w, http.StatusNotFound, jsonapi.Error{Detail: "The requested resource was not found"})
	case errors.As(err, &malformedErr):
		jsonapi.WriteError(w, http.StatusBadRequest, malformedErr.ErrorObject())
	case errors.As(err, &includeErr):
		jsonapi.WriteError(w, http.StatusBadRequest, includeErr.ErrorObject())
	case errors.As(err, &paramsErr):
		jsonapi.WriteError(w, http.StatusUnprocessableEntity, paramsErr.ErrorObject())
	default:
		h.logger.Error().Err(err).Msg("request failed")
		jsonapi.WriteError(w, http.StatusInternalServerError, jsonapi.ErrFromError(err))
	}
}
