// Package link derives resource, collection, and relationship URLs from the
// configured defaults and the per-request connection context.
package link

import (
	"fmt"
	"strings"

	"github.com/artpar/apiview/core/view"
)

// Builder constructs URLs for views. Scheme, Host, Port, and Namespace are
// the configured defaults; per-request values on the view.Context take
// precedence. With neither configured nor request connection info, URLs
// degrade to path-only.
type Builder struct {
	Scheme    string
	Host      string
	Port      int
	Namespace string
}

// CollectionURL returns the URL of the view's collection.
func (b *Builder) CollectionURL(v *view.Schema, ctx *view.Context) string {
	return b.base(ctx) + b.path(v.Path())
}

// ResourceURL returns the URL of a single resource.
func (b *Builder) ResourceURL(v *view.Schema, id string, ctx *view.Context) string {
	return b.base(ctx) + b.path(v.Path(), id)
}

// RelationshipURL returns the self URL of a resource's relationship.
func (b *Builder) RelationshipURL(v *view.Schema, id string, ctx *view.Context, relationship string) string {
	return b.base(ctx) + b.path(v.Path(), id, "relationships", relationship)
}

// RelatedURL returns the related-resource URL of a resource's relationship.
func (b *Builder) RelatedURL(v *view.Schema, id string, ctx *view.Context, relationship string) string {
	return b.base(ctx) + b.path(v.Path(), id, relationship)
}

// path joins segments under the configured namespace.
func (b *Builder) path(segments ...string) string {
	var sb strings.Builder
	if ns := strings.Trim(b.Namespace, "/"); ns != "" {
		sb.WriteByte('/')
		sb.WriteString(ns)
	}
	for _, s := range segments {
		sb.WriteByte('/')
		sb.WriteString(s)
	}
	return sb.String()
}

// base resolves the scheme://host:port prefix. Each of scheme, host, and
// port resolves per-request override first, configured value second. Without
// a host there is no authority to render, so base is empty.
func (b *Builder) base(ctx *view.Context) string {
	scheme, host, port := b.Scheme, b.Host, b.Port
	if ctx != nil {
		if ctx.Scheme != "" {
			scheme = ctx.Scheme
		}
		if ctx.Host != "" {
			host = ctx.Host
		}
		if ctx.Port != 0 {
			port = ctx.Port
		}
	}

	if host == "" {
		return ""
	}
	if scheme == "" {
		scheme = "http"
	}

	if port == 0 || port == defaultPort(scheme) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func defaultPort(scheme string) int {
	switch scheme {
	case "https":
		return 443
	case "http":
		return 80
	default:
		return 0
	}
}
