package render

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// DefaultAPIBase is the path prefix of the API below the host.
const DefaultAPIBase = "api/stac/v0.9/"

// Linker builds absolute navigational links below one API root.
type Linker struct {
	root string
}

// NewLinker returns a Linker for the API served at baseURL (scheme and host,
// any path is ignored) under apiBase.
func NewLinker(baseURL string, apiBase string) (Linker, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return Linker{}, err
	}
	return Linker{root: u.Scheme + "://" + u.Host + "/" + normalizeAPIBase(apiBase)}, nil
}

// LinkerFromRequest derives the Linker from the inbound request host.
// X-Forwarded-Proto overrides the scheme.
func LinkerFromRequest(r *http.Request, apiBase string) Linker {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return Linker{root: scheme + "://" + r.Host + "/" + normalizeAPIBase(apiBase)}
}

func normalizeAPIBase(apiBase string) string {
	apiBase = strings.Trim(apiBase, "/")
	if apiBase == "" {
		return ""
	}
	return apiBase + "/"
}

// Root returns the absolute URL of the landing page. It ends with "/".
func (l Linker) Root() string {
	return l.root
}

// URL joins path segments below the root, escaping each one.
func (l Linker) URL(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return l.root + strings.Join(escaped, "/")
}

// LinkObject renders one generated link.
func LinkObject(rel, href string) *Object {
	return ObjectOf("rel", rel, "href", href)
}

// CollectionLinks returns self, root, parent and items for collection c.
func (l Linker) CollectionLinks(c string) []*Object {
	return []*Object{
		LinkObject("self", l.URL("collections", c)),
		LinkObject("root", l.Root()),
		LinkObject("parent", l.URL("collections")),
		LinkObject("items", l.URL("collections", c, "items")),
	}
}

// ItemLinks returns self, root, parent and collection for item i of c.
func (l Linker) ItemLinks(c, i string) []*Object {
	return []*Object{
		LinkObject("self", l.URL("collections", c, "items", i)),
		LinkObject("root", l.Root()),
		LinkObject("parent", l.URL("collections", c, "items")),
		LinkObject("collection", l.URL("collections", c)),
	}
}

// AssetLinks returns self, root, parent, item and collection for asset a.
func (l Linker) AssetLinks(c, i, a string) []*Object {
	return []*Object{
		LinkObject("self", l.URL("collections", c, "items", i, "assets", a)),
		LinkObject("root", l.Root()),
		LinkObject("parent", l.URL("collections", c, "items", i, "assets")),
		LinkObject("item", l.URL("collections", c, "items", i)),
		LinkObject("collection", l.URL("collections", c)),
	}
}

// Inject prepends links to the "links" member of obj, keeping any links
// already present after them.
func Inject(obj *Object, links []*Object) {
	out := make([]*Object, 0, len(links))
	out = append(out, links...)
	if current, ok := obj.Get("links"); ok {
		switch v := current.(type) {
		case []*Object:
			out = append(out, v...)
		case []any:
			for _, e := range v {
				if o, ok := e.(*Object); ok {
					out = append(out, o)
				}
			}
		}
	}
	obj.Set("links", out)
}

// userLinks renders persisted links with their external keys.
func userLinks(links []stac.Link) []*Object {
	out := make([]*Object, 0, len(links))
	for _, link := range links {
		out = append(out, FilterNull(LinkFields.Externalize(ObjectOf(
			"href", link.Href,
			"rel", link.Rel,
			"link_type", optString(link.Type),
			"title", optString(link.Title),
		))))
	}
	return out
}
