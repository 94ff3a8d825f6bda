package stac

// CatalogType is the STAC type of the landing page.
const CatalogType = "Catalog"

// Catalog holds the static fields of the landing page. Its links are
// generated per request.
type Catalog struct {
	Type        string   `json:"type,omitempty"`
	Version     string   `json:"stac_version"`
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	ConformsTo  []string `json:"conformsTo,omitempty"`
}

// Conformance class URIs served by the API.
const (
	ConformanceFeaturesCore    = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"
	ConformanceFeaturesOAS30   = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/oas30"
	ConformanceFeaturesGeoJSON = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson"
)

// DefaultConformance is the conformsTo list of the conformance page.
var DefaultConformance = []string{
	ConformanceFeaturesCore,
	ConformanceFeaturesOAS30,
	ConformanceFeaturesGeoJSON,
}
