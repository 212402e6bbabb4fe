package web

import (
	"net/http"
	"strings"

	"github.com/artpar/apiview/core/render"
)

// renderOptions translates the include and fields query parameters into
// renderer options, case-decoding every wire-format name to its canonical
// form. Filter, sort, and page parameters belong to pluggable strategy
// modules and are not interpreted here.
func (h *Handler) renderOptions(r *http.Request) (render.Options, error) {
	opts := render.Options{}
	query := r.URL.Query()

	if include := query.Get("include"); include != "" {
		for _, path := range strings.Split(include, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			segments := strings.Split(path, ".")
			for i, s := range segments {
				segments[i] = h.style.Decode(s)
			}
			opts.Include = append(opts.Include, strings.Join(segments, "."))
		}
	}

	for key, values := range query {
		if !strings.HasPrefix(key, "fields[") || !strings.HasSuffix(key, "]") {
			continue
		}
		typ := key[len("fields[") : len(key)-1]
		var names []string
		for _, v := range values {
			for _, name := range strings.Split(v, ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				names = append(names, h.style.Decode(name))
			}
		}
		if opts.Fields == nil {
			opts.Fields = make(map[string][]string)
		}
		opts.Fields[typ] = names
	}

	return opts, nil
}
