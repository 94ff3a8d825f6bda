package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

var validMultihash = "1220" + strings.Repeat("ab", 32)

func messagesOf(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	var verr *apierr.ValidationError
	require.True(t, errors.As(err, &verr))
	return verr.Messages
}

func TestCollection(t *testing.T) {
	tests := []struct {
		name string
		body string
		mode render.Mode
		want []string
	}{
		{
			name: "valid create",
			body: `{"id": "ch.swisstopo.test", "description": "d", "license": "MIT"}`,
			mode: render.Create,
		},
		{
			name: "missing required on create",
			body: `{"title": "t"}`,
			mode: render.Create,
			want: []string{"id: This field is required.", "description: This field is required.", "license: This field is required."},
		},
		{
			name: "merge needs nothing",
			body: `{"title": "t"}`,
			mode: render.Merge,
		},
		{
			name: "null description on merge",
			body: `{"description": null}`,
			mode: render.Merge,
			want: []string{"description: This field may not be null."},
		},
		{
			name: "invalid id",
			body: `{"id": "Bad Name", "description": "d", "license": "MIT"}`,
			mode: render.Create,
			want: []string{"id: Invalid name, only the following characters are allowed: 0-9a-z-_."},
		},
		{
			name: "license too long",
			body: `{"description": "d", "license": "` + strings.Repeat("x", 31) + `"}`,
			mode: render.Replace,
			want: []string{"license: Ensure this field has no more than 30 characters."},
		},
		{
			name: "reserved link rel",
			body: `{"description": "d", "license": "MIT", "links": [{"href": "https://x", "rel": "self"}]}`,
			mode: render.Replace,
			want: []string{"links[0].rel: Invalid rel attribute, must not be in self, root, parent, items, collection, service-desc, service-doc, search, conformance"},
		},
		{
			name: "bad provider role",
			body: `{"description": "d", "license": "MIT", "providers": [{"name": "p", "roles": ["owner"]}]}`,
			mode: render.Replace,
			want: []string{`providers[0].roles[0]: "owner" is not a valid choice.`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := render.DecodeCollection([]byte(tt.body))
			require.NoError(t, err)
			err = Collection(in, tt.mode)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, messagesOf(t, err))
		})
	}
}

func TestItem(t *testing.T) {
	in, err := render.DecodeItem([]byte(`{"id": "i1", "properties": {"datetime": "2020-01-01T00:00:00Z"}}`))
	require.NoError(t, err)
	assert.NoError(t, Item(in, render.Create))

	in, err = render.DecodeItem([]byte(`{"id": "i1"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"properties: This field is required."}, messagesOf(t, Item(in, render.Replace)))

	in, err = render.DecodeItem([]byte(`{"properties": {"datetime": "yesterday"}}`))
	require.NoError(t, err)
	msgs := messagesOf(t, Item(in, render.Merge))
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "properties.datetime: Datetime has wrong format."))
}

func TestItemProperties(t *testing.T) {
	a := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(time.Hour)

	tests := []struct {
		name  string
		props stac.ItemProperties
		ok    bool
	}{
		{"datetime only", stac.ItemProperties{Datetime: &a}, true},
		{"range", stac.ItemProperties{StartDatetime: &a, EndDatetime: &b}, true},
		{"nothing", stac.ItemProperties{}, false},
		{"both", stac.ItemProperties{Datetime: &a, StartDatetime: &a, EndDatetime: &b}, false},
		{"start only", stac.ItemProperties{StartDatetime: &a}, false},
		{"end before start", stac.ItemProperties{StartDatetime: &b, EndDatetime: &a}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ItemProperties(tt.props)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAsset(t *testing.T) {
	valid := `{"id": "a.tif", "type": "image/tiff; application=geotiff", "href": "https://data.example.com/a.tif",
		"geoadmin:lang": "de", "geoadmin:variant": "komb", "checksum:multihash": "` + validMultihash + `"}`
	in, err := render.DecodeAsset([]byte(valid))
	require.NoError(t, err)
	assert.NoError(t, Asset(in, render.Create))

	in, err = render.DecodeAsset([]byte(`{"type": "image/png", "href": "nope", "geoadmin:lang": "es",
		"geoadmin:variant": "a-b", "checksum:multihash": "zz"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"type: Invalid media type.",
		"href: Enter a valid URL.",
		`geoadmin:lang: "es" is not a valid choice.`,
		"geoadmin:variant: Invalid geoadmin:variant, special characters not allowed",
		"checksum:multihash: Invalid multihash value",
	}, messagesOf(t, Asset(in, render.Merge)))
}

func TestDecodeMultihash(t *testing.T) {
	mh, err := DecodeMultihash(validMultihash)
	require.NoError(t, err)
	assert.Equal(t, "sha2-256", mh.Name)
	assert.Len(t, mh.Digest, 32)

	_, err = DecodeMultihash("1220abcd")
	assert.Error(t, err)
}
