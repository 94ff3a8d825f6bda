package stac

// Link is a user supplied link persisted on a Collection or an Item.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// ReservedRels lists the relation types generated by the API itself. They
// cannot be stored as user links.
var ReservedRels = []string{
	"self",
	"root",
	"parent",
	"items",
	"collection",
	"service-desc",
	"service-doc",
	"search",
	"conformance",
}

// IsReservedRel reports whether rel is generated by the API.
func IsReservedRel(rel string) bool {
	for _, r := range ReservedRels {
		if r == rel {
			return true
		}
	}
	return false
}

func cloneLinks(links []Link) []Link {
	if links == nil {
		return nil
	}
	out := make([]Link, len(links))
	copy(out, links)
	return out
}
