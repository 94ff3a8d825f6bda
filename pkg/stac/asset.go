package stac

import "time"

// Asset is a file referenced by an Item. Name is unique within the Item.
type Asset struct {
	Collection        string    `json:"collection"`
	Item              string    `json:"item"`
	Name              string    `json:"name"`
	Title             string    `json:"title,omitempty"`
	Description       string    `json:"description,omitempty"`
	MediaType         string    `json:"media_type"`
	Href              string    `json:"href"`
	EOGSD             *float64  `json:"eo_gsd,omitempty"`
	GeoadminLang      string    `json:"geoadmin_lang,omitempty"`
	GeoadminVariant   string    `json:"geoadmin_variant,omitempty"`
	ProjEPSG          *int      `json:"proj_epsg,omitempty"`
	ChecksumMultihash string    `json:"checksum_multihash,omitempty"`
	Created           time.Time `json:"created"`
	Updated           time.Time `json:"updated"`
	ETag              string    `json:"etag"`
}

// Languages are the accepted values of Asset.GeoadminLang.
var Languages = []string{"de", "it", "fr", "rm", "en"}

// ObjectKey is the object storage path of the asset file.
func (a *Asset) ObjectKey() string {
	return a.Collection + "/" + a.Item + "/" + a.Name
}

// Touch marks the asset as changed at now.
func (a *Asset) Touch(now time.Time) {
	a.Updated = now.UTC()
	a.ETag = NewETag()
}

// Clone returns a deep copy of a.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	out := *a
	if a.EOGSD != nil {
		v := *a.EOGSD
		out.EOGSD = &v
	}
	if a.ProjEPSG != nil {
		v := *a.ProjEPSG
		out.ProjEPSG = &v
	}
	return &out
}
