package api

import (
	"net/http"
	"net/url"

	"github.com/robert-malhotra/go-stac-api/pkg/render"
)

// selfURL is the absolute URL of the current list request, keeping its
// query parameters.
func selfURL(l render.Linker, r *http.Request, segments ...string) *url.URL {
	u, err := url.Parse(l.URL(segments...))
	if err != nil {
		u = &url.URL{Path: r.URL.Path}
	}
	u.RawQuery = r.URL.RawQuery
	return u
}

// selfHref returns the href of the self link of a rendered resource.
func selfHref(obj *render.Object) (string, bool) {
	v, ok := obj.Get("links")
	if !ok {
		return "", false
	}
	links, ok := v.([]*render.Object)
	if !ok {
		return "", false
	}
	for _, link := range links {
		if rel, _ := link.Get("rel"); rel == "self" {
			href, ok := link.Get("href")
			if s, isString := href.(string); ok && isString {
				return s, true
			}
		}
	}
	return "", false
}
