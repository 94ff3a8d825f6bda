package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-stac-api/internal/config"
	"github.com/robert-malhotra/go-stac-api/internal/store"
	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/client"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

const testToken = "secret"

type testAPI struct {
	srv    *httptest.Server
	base   string
	client *client.Client
}

func newTestAPI(t *testing.T, mutate func(*config.Config)) *testAPI {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.Tokens = []string{testToken}
	if mutate != nil {
		mutate(cfg)
	}
	return newTestAPIWithStore(t, cfg, store.NewMemory())
}

func newTestAPIWithStore(t *testing.T, cfg *config.Config, st store.Store) *testAPI {
	t.Helper()
	srv := httptest.NewServer(New(cfg, st).Handler())
	t.Cleanup(srv.Close)
	base := srv.URL + "/api/stac/v0.9/"
	c, err := client.NewClient(base, client.WithToken(testToken), client.WithRetryPolicy(nil))
	require.NoError(t, err)
	return &testAPI{srv: srv, base: base, client: c}
}

type response struct {
	status int
	header http.Header
	raw    []byte
	body   map[string]any
}

// do sends a raw request. A body of type string is sent as is.
func (a *testAPI) do(t *testing.T, method, path string, body any, header map[string]string) response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	target := path
	if !strings.HasPrefix(path, "http") {
		target = a.base + path
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, header: resp.Header, raw: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func auth() map[string]string {
	return map[string]string{"Authorization": "Token " + testToken}
}

func collectionPayload(id string) map[string]any {
	return map[string]any{
		"id":          id,
		"title":       "Test " + id,
		"description": "Collection " + id,
		"license":     "proprietary",
		"providers": []any{
			map[string]any{"name": "swisstopo", "roles": []any{"producer"}, "url": "https://www.swisstopo.admin.ch"},
		},
	}
}

func itemPayload(id string, lon, lat float64, datetime string) map[string]any {
	return map[string]any{
		"id":       id,
		"geometry": map[string]any{"type": "Point", "coordinates": []any{lon, lat}},
		"properties": map[string]any{
			"datetime": datetime,
			"title":    "Item " + id,
		},
	}
}

func linkHref(t *testing.T, body map[string]any, rel string) (string, bool) {
	t.Helper()
	links, ok := body["links"].([]any)
	require.True(t, ok, "links must be a list")
	for _, l := range links {
		link := l.(map[string]any)
		if link["rel"] == rel {
			return link["href"].(string), true
		}
	}
	return "", false
}

func rels(body map[string]any) []string {
	var out []string
	links, _ := body["links"].([]any)
	for _, l := range links {
		out = append(out, l.(map[string]any)["rel"].(string))
	}
	return out
}

func TestLanding(t *testing.T) {
	api := newTestAPI(t, nil)

	resp := api.do(t, http.MethodGet, "", nil, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "ch", resp.body["id"])
	assert.Equal(t, "0.9.0", resp.body["stac_version"])
	assert.Equal(t, []string{"self", "root", "conformance", "data", "search"}, rels(resp.body))
	assert.Equal(t, "public, max-age=600", resp.header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.header.Get("X-Request-ID"))

	data, ok := linkHref(t, resp.body, "data")
	require.True(t, ok)
	assert.Equal(t, api.base+"collections", data)
}

func TestConformance(t *testing.T) {
	api := newTestAPI(t, nil)

	classes, err := api.client.GetConformance(context.Background())
	require.NoError(t, err)
	assert.Contains(t, classes, "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core")
}

func TestChecker(t *testing.T) {
	api := newTestAPI(t, nil)

	resp := api.do(t, http.MethodGet, api.srv.URL+"/checker", nil, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.JSONEq(t, `{"success":true,"message":"OK"}`, string(resp.raw))
	assert.Equal(t, "no-cache, no-store, must-revalidate, max-age=0", resp.header.Get("Cache-Control"))
}

func TestCollectionLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()

	t.Run("write without token is denied", func(t *testing.T) {
		resp := api.do(t, http.MethodPost, "collections", collectionPayload("ch.test"), nil)
		assert.Equal(t, http.StatusForbidden, resp.status)
		assert.Equal(t, float64(403), resp.body["code"])
		assert.Equal(t, "You do not have permission to perform this action.", resp.body["description"])
	})

	t.Run("create", func(t *testing.T) {
		resp := api.do(t, http.MethodPost, "collections", collectionPayload("ch.test"), auth())
		require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
		self, ok := linkHref(t, resp.body, "self")
		require.True(t, ok)
		assert.Equal(t, api.base+"collections/ch.test", self)
		assert.Equal(t, self, resp.header.Get("Location"))
		assert.NotEmpty(t, resp.header.Get("ETag"))
		assert.Equal(t, "ch.test", resp.body["id"])
		assert.Equal(t, "proprietary", resp.body["license"])
		assert.NotContains(t, resp.body, "name")
		assert.Equal(t, []string{"self", "root", "parent", "items"}, rels(resp.body))
	})

	t.Run("create existing id", func(t *testing.T) {
		_, err := api.client.CreateCollection(ctx, collectionPayload("ch.test"))
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Contains(t, apiErr.Description, "already exists")
	})

	t.Run("missing required fields", func(t *testing.T) {
		resp := api.do(t, http.MethodPost, "collections", `{"id":"other"}`, auth())
		require.Equal(t, http.StatusBadRequest, resp.status)
		assert.Contains(t, resp.body["description"], "description: This field is required.")
		assert.Contains(t, resp.body["description"], "license: This field is required.")
	})

	var etag string
	t.Run("get", func(t *testing.T) {
		col, tag, err := api.client.GetCollection(ctx, "ch.test")
		require.NoError(t, err)
		assert.Equal(t, "ch.test", col.Id)
		assert.Equal(t, "Test ch.test", col.Title)
		require.NotEmpty(t, tag)
		etag = tag
	})

	t.Run("conditional get", func(t *testing.T) {
		resp := api.do(t, http.MethodGet, "collections/ch.test", nil, map[string]string{"If-None-Match": `"` + etag + `"`})
		assert.Equal(t, http.StatusNotModified, resp.status)
	})

	t.Run("stale If-Match", func(t *testing.T) {
		_, err := api.client.PatchCollection(ctx, "ch.test", map[string]any{"title": "New"}, client.IfMatch("stale"))
		assert.True(t, client.IsPreconditionFailed(err), "got %v", err)
	})

	t.Run("patch", func(t *testing.T) {
		col, err := api.client.PatchCollection(ctx, "ch.test", map[string]any{"title": "New"}, client.IfMatch(etag))
		require.NoError(t, err)
		assert.Equal(t, "New", col.Title)
		assert.Equal(t, "Collection ch.test", col.Description)

		_, tag, err := api.client.GetCollection(ctx, "ch.test")
		require.NoError(t, err)
		assert.NotEqual(t, etag, tag)
	})

	t.Run("put with other id", func(t *testing.T) {
		_, err := api.client.UpdateCollection(ctx, "ch.test", collectionPayload("ch.other"))
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Contains(t, apiErr.Description, "does not match")
	})

	t.Run("put clears optional fields", func(t *testing.T) {
		payload := collectionPayload("ch.test")
		delete(payload, "title")
		col, err := api.client.UpdateCollection(ctx, "ch.test", payload)
		require.NoError(t, err)
		assert.Empty(t, col.Title)
	})

	t.Run("delete", func(t *testing.T) {
		resp := api.do(t, http.MethodDelete, "collections/ch.test", nil, auth())
		require.Equal(t, http.StatusOK, resp.status)
		assert.Equal(t, float64(200), resp.body["code"])
		assert.Equal(t, "ch.test successfully deleted", resp.body["description"])
		parent, ok := linkHref(t, resp.body, "parent")
		require.True(t, ok)
		assert.Equal(t, api.base+"collections", parent)

		_, _, err := api.client.GetCollection(ctx, "ch.test")
		assert.True(t, client.IsNotFound(err), "got %v", err)
	})
}

func TestCollectionPagination(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()
	for i := range 5 {
		_, err := api.client.CreateCollection(ctx, collectionPayload(fmt.Sprintf("c%d", i)))
		require.NoError(t, err)
	}

	first := api.do(t, http.MethodGet, "collections?limit=2", nil, nil)
	require.Equal(t, http.StatusOK, first.status)
	assert.Len(t, first.body["collections"], 2)
	assert.Equal(t, []string{"self", "root", "parent", "next"}, rels(first.body))

	var ids []string
	for col, err := range api.client.GetCollections(ctx) {
		require.NoError(t, err)
		ids = append(ids, col.Id)
	}
	assert.Equal(t, []string{"c0", "c1", "c2", "c3", "c4"}, ids)
}

func TestItemPagination(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()
	_, err := api.client.CreateCollection(ctx, collectionPayload("c"))
	require.NoError(t, err)
	for i := range 10 {
		_, err := api.client.CreateItem(ctx, "c", itemPayload(fmt.Sprintf("item-%02d", i), 7, 46, "2020-01-01T00:00:00Z"))
		require.NoError(t, err)
	}

	var pages [][]string
	next := "collections/c/items?limit=4"
	for next != "" {
		resp := api.do(t, http.MethodGet, next, nil, nil)
		require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
		assert.Equal(t, "FeatureCollection", resp.body["type"])
		var ids []string
		for _, f := range resp.body["features"].([]any) {
			ids = append(ids, f.(map[string]any)["id"].(string))
		}
		pages = append(pages, ids)
		_, hasPrev := linkHref(t, resp.body, "previous")
		assert.Equal(t, len(pages) > 1, hasPrev, "page %d", len(pages))
		next, _ = linkHref(t, resp.body, "next")
	}
	assert.Equal(t, [][]string{
		{"item-00", "item-01", "item-02", "item-03"},
		{"item-04", "item-05", "item-06", "item-07"},
		{"item-08", "item-09"},
	}, pages)

	t.Run("previous from last page", func(t *testing.T) {
		second := api.do(t, http.MethodGet, "collections/c/items?limit=4", nil, nil)
		href, _ := linkHref(t, second.body, "next")
		second = api.do(t, http.MethodGet, href, nil, nil)
		href, _ = linkHref(t, second.body, "next")
		last := api.do(t, http.MethodGet, href, nil, nil)
		prev, ok := linkHref(t, last.body, "previous")
		require.True(t, ok)
		back := api.do(t, http.MethodGet, prev, nil, nil)
		var ids []string
		for _, f := range back.body["features"].([]any) {
			ids = append(ids, f.(map[string]any)["id"].(string))
		}
		assert.Equal(t, []string{"item-04", "item-05", "item-06", "item-07"}, ids)
	})

	t.Run("client follows next", func(t *testing.T) {
		var n int
		for it, err := range api.client.GetItemsWithQuery(ctx, "c", url.Values{"limit": {"3"}}) {
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("item-%02d", n), it.Id)
			n++
		}
		assert.Equal(t, 10, n)
	})

	t.Run("limit out of range", func(t *testing.T) {
		resp := api.do(t, http.MethodGet, "collections/c/items?limit=0", nil, nil)
		require.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, float64(400), resp.body["code"])
		assert.Equal(t, "limit query parameter to small, must be in range 1..100", resp.body["description"])
	})
}

func TestItemWithoutGeometry(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()
	_, err := api.client.CreateCollection(ctx, collectionPayload("c"))
	require.NoError(t, err)

	resp := api.do(t, http.MethodPost, "collections/c/items",
		map[string]any{"id": "nogeom", "properties": map[string]any{"datetime": "2020-01-01T00:00:00Z"}}, auth())
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	assert.Equal(t, []any{[]any{}}, resp.body["bbox"])
	assert.NotContains(t, resp.body, "geometry")

	col := api.do(t, http.MethodGet, "collections/c", nil, nil)
	extent := col.body["extent"].(map[string]any)
	assert.Equal(t, []any{[]any{}}, extent["spatial"].(map[string]any)["bbox"])
	assert.Equal(t, []any{[]any{"2020-01-01T00:00:00.000000Z", "2020-01-01T00:00:00.000000Z"}}, extent["temporal"].(map[string]any)["interval"])

	it, _, err := api.client.GetItem(ctx, "c", "nogeom")
	require.NoError(t, err)
	assert.Equal(t, "nogeom", it.Id)
}

func TestItemValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	_, err := api.client.CreateCollection(context.Background(), collectionPayload("c"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{
			name:    "datetime with range",
			payload: map[string]any{"id": "a", "properties": map[string]any{"datetime": "2020-01-01T00:00:00Z", "start_datetime": "2020-01-01T00:00:00Z", "end_datetime": "2020-01-02T00:00:00Z"}},
			want:    "Cannot provide together property datetime",
		},
		{
			name:    "end before start",
			payload: map[string]any{"id": "a", "properties": map[string]any{"start_datetime": "2020-01-02T00:00:00Z", "end_datetime": "2020-01-01T00:00:00Z"}},
			want:    "earlier than property start_datetime",
		},
		{
			name:    "invalid id",
			payload: map[string]any{"id": "Upper Case", "properties": map[string]any{"datetime": "2020-01-01T00:00:00Z"}},
			want:    "Invalid name",
		},
		{
			name:    "reserved link rel",
			payload: map[string]any{"id": "a", "properties": map[string]any{"datetime": "2020-01-01T00:00:00Z"}, "links": []any{map[string]any{"rel": "self", "href": "https://example.com"}}},
			want:    "Invalid rel attribute",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(t, http.MethodPost, "collections/c/items", tt.payload, auth())
			require.Equal(t, http.StatusBadRequest, resp.status, string(resp.raw))
			assert.Contains(t, resp.body["description"], tt.want)
		})
	}

	t.Run("missing collection", func(t *testing.T) {
		resp := api.do(t, http.MethodPost, "collections/missing/items", itemPayload("a", 7, 46, "2020-01-01T00:00:00Z"), auth())
		assert.Equal(t, http.StatusNotFound, resp.status)
	})
}

func TestAssets(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()
	_, err := api.client.CreateCollection(ctx, collectionPayload("c"))
	require.NoError(t, err)
	_, err = api.client.CreateItem(ctx, "c", itemPayload("i", 7, 46, "2020-01-01T00:00:00Z"))
	require.NoError(t, err)

	for id, gsd := range map[string]float64{"a.tif": 2.5, "b.tif": 0.5} {
		resp := api.do(t, http.MethodPost, "collections/c/items/i/assets", map[string]any{
			"id":        id,
			"type":      "image/tiff; application=geotiff",
			"href":      "https://data.example.com/c/i/" + id,
			"eo:gsd":    gsd,
			"proj:epsg": 2056,
		}, auth())
		require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	}

	list := api.do(t, http.MethodGet, "collections/c/items/i/assets", nil, nil)
	require.Equal(t, http.StatusOK, list.status)
	assets := list.body["assets"].(map[string]any)
	require.Len(t, assets, 2)
	assert.NotContains(t, assets["a.tif"], "id")
	assert.Equal(t, []string{"self", "root", "parent", "item", "collection"}, rels(list.body))

	byID, err := api.client.GetAssets(ctx, "c", "i")
	require.NoError(t, err)
	assert.Equal(t, "https://data.example.com/c/i/b.tif", byID["b.tif"].Href)

	item := api.do(t, http.MethodGet, "collections/c/items/i", nil, nil)
	props := item.body["properties"].(map[string]any)
	assert.Equal(t, 0.5, props["eo:gsd"])
	assert.Contains(t, item.body["assets"], "a.tif")

	col := api.do(t, http.MethodGet, "collections/c", nil, nil)
	summaries := col.body["summaries"].(map[string]any)
	assert.Equal(t, []any{0.5, 2.5}, summaries["eo:gsd"])
	assert.Equal(t, []any{float64(2056)}, summaries["proj:epsg"])

	t.Run("invalid media type", func(t *testing.T) {
		resp := api.do(t, http.MethodPost, "collections/c/items/i/assets",
			map[string]any{"id": "x", "type": "text/html", "href": "https://data.example.com/x"}, auth())
		require.Equal(t, http.StatusBadRequest, resp.status)
		assert.Contains(t, resp.body["description"], "Invalid media type.")
	})

	t.Run("delete recomputes", func(t *testing.T) {
		require.NoError(t, api.client.DeleteAsset(ctx, "c", "i", "b.tif"))
		item := api.do(t, http.MethodGet, "collections/c/items/i", nil, nil)
		assert.Equal(t, 2.5, item.body["properties"].(map[string]any)["eo:gsd"])
	})

	t.Run("cascade delete", func(t *testing.T) {
		require.NoError(t, api.client.DeleteItem(ctx, "c", "i"))
		resp := api.do(t, http.MethodGet, "collections/c/items/i/assets/a.tif", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.status)
	})
}

func TestSearch(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()
	for _, c := range []string{"a", "b"} {
		_, err := api.client.CreateCollection(ctx, collectionPayload(c))
		require.NoError(t, err)
	}
	items := []struct {
		collection, id string
		lon, lat       float64
		datetime       string
	}{
		{"a", "bern", 7.44, 46.95, "2020-01-01T00:00:00Z"},
		{"a", "zurich", 8.54, 47.37, "2021-01-01T00:00:00Z"},
		{"b", "geneva", 6.14, 46.20, "2020-06-01T00:00:00Z"},
		{"b", "lugano", 8.95, 46.00, "2022-01-01T00:00:00Z"},
	}
	for _, it := range items {
		_, err := api.client.CreateItem(ctx, it.collection, itemPayload(it.id, it.lon, it.lat, it.datetime))
		require.NoError(t, err)
	}

	ids := func(t *testing.T, params client.SearchParams, post bool) []string {
		t.Helper()
		seq := api.client.Search(ctx, params)
		if post {
			seq = api.client.SearchPost(ctx, params)
		}
		var out []string
		for it, err := range seq {
			require.NoError(t, err)
			out = append(out, it.Id)
		}
		return out
	}

	one := 1
	tests := []struct {
		name   string
		params client.SearchParams
		want   []string
	}{
		{"all", client.SearchParams{}, []string{"bern", "zurich", "geneva", "lugano"}},
		{"collections", client.SearchParams{Collections: []string{"b"}}, []string{"geneva", "lugano"}},
		{"bbox", client.SearchParams{BBox: []float64{7, 46.5, 9, 48}}, []string{"bern", "zurich"}},
		{"datetime range", client.SearchParams{Datetime: "2020-01-01T00:00:00Z/2020-12-31T00:00:00Z"}, []string{"bern", "geneva"}},
		{"open range", client.SearchParams{Datetime: "2021-01-01T00:00:00Z/.."}, []string{"zurich", "lugano"}},
		{"ids override filters", client.SearchParams{IDs: []string{"lugano"}, Collections: []string{"a"}}, []string{"lugano"}},
		{"paged", client.SearchParams{Limit: &one, Collections: []string{"a"}}, []string{"bern", "zurich"}},
	}
	for _, tt := range tests {
		t.Run("GET "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(t, tt.params, false))
		})
		t.Run("POST "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(t, tt.params, true))
		})
	}

	t.Run("POST next link carries the body", func(t *testing.T) {
		resp := api.do(t, http.MethodPost, "search", `{"collections":["a"],"limit":1}`, nil)
		require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
		var next map[string]any
		for _, l := range resp.body["links"].([]any) {
			if link := l.(map[string]any); link["rel"] == "next" {
				next = link
			}
		}
		require.NotNil(t, next)
		assert.Equal(t, "POST", next["method"])
		assert.Equal(t, map[string]any{"collections": []any{"a"}, "limit": float64(1)}, next["body"])
	})

	t.Run("POST limit", func(t *testing.T) {
		limits := []struct {
			name   string
			body   string
			status int
			count  int
			desc   string
		}{
			{"number", `{"collections":["a"],"limit":1}`, http.StatusOK, 1, ""},
			{"numeric string", `{"collections":["a"],"limit":"1"}`, http.StatusOK, 1, ""},
			{"null", `{"collections":["a"],"limit":null}`, http.StatusOK, 2, ""},
			{"zero string", `{"limit":"0"}`, http.StatusBadRequest, 0, "limit query parameter to small, must be in range 1..100"},
			{"too big", `{"limit":101}`, http.StatusBadRequest, 0, "limit query parameter to big, must be in range 1..100"},
			{"not a number", `{"limit":"five"}`, http.StatusBadRequest, 0, "invalid limit query parameter: must be an integer"},
		}
		for _, tt := range limits {
			t.Run(tt.name, func(t *testing.T) {
				resp := api.do(t, http.MethodPost, "search", tt.body, nil)
				require.Equal(t, tt.status, resp.status, string(resp.raw))
				if tt.status != http.StatusOK {
					assert.Equal(t, tt.desc, resp.body["description"])
					return
				}
				assert.Len(t, resp.body["features"], tt.count)
			})
		}
	})

	t.Run("invalid bbox", func(t *testing.T) {
		resp := api.do(t, http.MethodGet, "search?bbox=1,2,3", nil, nil)
		require.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "Invalid bbox query parameter,  has to contain 4 values. f.ex. bbox=5.96,45.82,10.49,47.81", resp.body["description"])
	})
}

func TestErrorResponses(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"unknown collection", http.MethodGet, "collections/missing", http.StatusNotFound},
		{"unknown route", http.MethodGet, "nowhere", http.StatusNotFound},
		{"method not allowed", http.MethodDelete, "conformance", http.StatusMethodNotAllowed},
		{"invalid cursor", http.MethodGet, "collections?cursor=%25%25", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(t, tt.method, tt.path, nil, nil)
			require.Equal(t, tt.status, resp.status, string(resp.raw))
			assert.Equal(t, float64(tt.status), resp.body["code"])
			assert.NotEmpty(t, resp.body["description"])
			assert.Equal(t, "no-cache, no-store, must-revalidate, max-age=0", resp.header.Get("Cache-Control"))
		})
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) Ping(context.Context) error {
	return errors.New("store unavailable")
}

func TestInternalFault(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		api := newTestAPIWithStore(t, config.Default(), failingStore{store.NewMemory()})
		resp := api.do(t, http.MethodGet, api.srv.URL+"/checker", nil, nil)
		require.Equal(t, http.StatusInternalServerError, resp.status)
		assert.Equal(t, float64(500), resp.body["code"])
		assert.Equal(t, "store unavailable", resp.body["description"])
	})

	t.Run("debug page", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.Debug = true
		api := newTestAPIWithStore(t, cfg, failingStore{store.NewMemory()})
		resp := api.do(t, http.MethodGet, api.srv.URL+"/checker", nil, nil)
		require.Equal(t, http.StatusInternalServerError, resp.status)
		assert.True(t, strings.HasPrefix(resp.header.Get("Content-Type"), "text/plain"))
		assert.Contains(t, string(resp.raw), "store unavailable")
	})

	t.Run("debug with propagated errors", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.Debug = true
		cfg.Server.DebugPropagateAPIErrors = true
		api := newTestAPIWithStore(t, cfg, failingStore{store.NewMemory()})
		resp := api.do(t, http.MethodGet, api.srv.URL+"/checker", nil, nil)
		require.Equal(t, http.StatusInternalServerError, resp.status)
		assert.Equal(t, float64(500), resp.body["code"])
	})
}

func TestMatchETag(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`*`, true},
		{`"x"`, false},
		{``, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, matchETag(tt.header, "abc"))
		})
	}
}

func TestBearer(t *testing.T) {
	assert.Equal(t, "t", bearer("Token t"))
	assert.Equal(t, "t", bearer("Bearer t"))
	assert.Equal(t, "t", bearer("bearer  t "))
	assert.Empty(t, bearer("Basic dTpw"))
	assert.Empty(t, bearer("t"))
}

// storeReadingChecker reads the store while checking, which blocks if the
// check runs inside a write transaction of the memory store.
type storeReadingChecker struct {
	st    store.Store
	calls int
}

func (c *storeReadingChecker) Check(ctx context.Context, a *stac.Asset) error {
	c.calls++
	if _, err := c.st.ListAssets(ctx, a.Collection, a.Item); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if a.Title == "rejected" {
		return apierr.Validation("href: Asset file does not exist.")
	}
	return nil
}

func TestAssetUpdateChecksOutsideTransaction(t *testing.T) {
	st := store.NewMemory()
	checker := &storeReadingChecker{st: st}
	cfg := config.Default()
	cfg.Auth.Tokens = []string{testToken}
	srv := httptest.NewServer(New(cfg, st, WithChecker(checker)).Handler())
	t.Cleanup(srv.Close)
	api := &testAPI{srv: srv, base: srv.URL + "/api/stac/v0.9/"}

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "collections", collectionPayload("c"), auth()).status)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "collections/c/items",
		itemPayload("i", 7, 46, "2020-01-01T00:00:00Z"), auth()).status)
	created := api.do(t, http.MethodPost, "collections/c/items/i/assets", map[string]any{
		"id":   "a.tif",
		"type": "image/tiff; application=geotiff",
		"href": "https://data.example.com/c/i/a.tif",
	}, auth())
	require.Equal(t, http.StatusCreated, created.status, string(created.raw))

	req, err := http.NewRequest(http.MethodPatch, api.base+"collections/c/items/i/assets/a.tif", strings.NewReader(`{"title":"T"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Token "+testToken)
	req.Header.Set("Content-Type", "application/json")
	done := make(chan int, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	select {
	case status := <-done:
		require.Equal(t, http.StatusOK, status)
	case <-time.After(5 * time.Second):
		t.Fatal("asset update blocked on the file check")
	}
	updated := api.do(t, http.MethodGet, "collections/c/items/i/assets/a.tif", nil, nil)
	assert.Equal(t, "T", updated.body["title"])

	t.Run("rejected check leaves the asset unchanged", func(t *testing.T) {
		before := api.do(t, http.MethodGet, "collections/c/items/i/assets/a.tif", nil, nil)
		resp := api.do(t, http.MethodPatch, "collections/c/items/i/assets/a.tif", map[string]any{"title": "rejected"}, auth())
		require.Equal(t, http.StatusBadRequest, resp.status)
		after := api.do(t, http.MethodGet, "collections/c/items/i/assets/a.tif", nil, nil)
		assert.Equal(t, before.header.Get("ETag"), after.header.Get("ETag"))
		assert.Equal(t, "T", after.body["title"])
	})

	t.Run("stale If-Match is rejected before the check", func(t *testing.T) {
		calls := checker.calls
		resp := api.do(t, http.MethodPatch, "collections/c/items/i/assets/a.tif", map[string]any{"title": "U"},
			map[string]string{"Authorization": "Token " + testToken, "If-Match": `"stale"`})
		assert.Equal(t, http.StatusPreconditionFailed, resp.status)
		assert.Equal(t, calls, checker.calls)
	})
}
