package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiBase = "/api/stac/v0.9/"

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]ClientOption{WithRetryPolicy(RetryPolicyFunc(func(resp *http.Response, err error) (bool, time.Duration) {
		ok, _ := DefaultRetryPolicy.ShouldRetry(resp, err)
		return ok, time.Millisecond
	}))}, opts...)
	c, err := NewClient(srv.URL+apiBase, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://localhost:8000/api/stac/v0.9")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/stac/v0.9/collections/a", c.resolve("collections", "a").String())

	_, err = NewClient("/relative")
	assert.Error(t, err)
}

func TestGetCollections_FollowsNext(t *testing.T) {
	pages := map[string]string{
		"": `{"collections":[{"id":"a","description":"A","license":"MIT","links":[]},{"id":"b","description":"B","license":"MIT","links":[]}],
		      "links":[{"rel":"next","href":"collections?cursor=p2"}]}`,
		"p2": `{"collections":[{"id":"c","description":"C","license":"MIT","links":[]}],
		      "links":[{"rel":"previous","href":"collections?cursor=p1"}]}`,
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiBase+"collections", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pages[r.URL.Query().Get("cursor")])
	})

	var ids []string
	for col, err := range c.GetCollections(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, col.Id)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestGetItems_StopsEarly(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"type":"FeatureCollection","features":[
			{"type":"Feature","id":"one","collection":"c","geometry":null,"bbox":[[]],"properties":{},"links":[],"assets":{}},
			{"type":"Feature","id":"two","collection":"c","geometry":null,"bbox":[[]],"properties":{},"links":[],"assets":{}}],
			"links":[{"rel":"next","href":"items?cursor=x"}]}`)
	})

	var ids []string
	for it, err := range c.GetItems(context.Background(), "c") {
		require.NoError(t, err)
		ids = append(ids, it.Id)
		break
	}
	assert.Equal(t, []string{"one"}, ids)
	assert.EqualValues(t, 1, calls.Load())
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code":404,"description":"Not found."}`)
	})

	_, _, err := c.GetCollection(context.Background(), "missing")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, 404, apiErr.Code)
	assert.Equal(t, "Not found.", apiErr.Description)
	assert.True(t, IsNotFound(err))
	assert.False(t, apiErr.Temporary())
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		call      func(*Client) error
		wantCalls int32
	}{
		{
			name: "GET is retried",
			call: func(c *Client) error {
				_, _, err := c.GetCollection(context.Background(), "a")
				return err
			},
			wantCalls: MaxAttempts,
		},
		{
			name: "POST is not retried",
			call: func(c *Client) error {
				_, err := c.CreateCollection(context.Background(), map[string]any{"id": "a"})
				return err
			},
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, `{"code":503,"description":"unavailable"}`)
			})
			err := tt.call(c)
			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestWriteHeaders(t *testing.T) {
	var got http.Header
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"new"`)
		fmt.Fprint(w, `{"id":"a","description":"A","license":"MIT","links":[]}`)
	}, WithToken("secret"))

	col, err := c.PatchCollection(context.Background(), "a", []byte(`{"title":"T"}`), IfMatch("old"))
	require.NoError(t, err)
	assert.Equal(t, "a", col.Id)
	assert.Equal(t, "Token secret", got.Get("Authorization"))
	assert.Equal(t, `"old"`, got.Get("If-Match"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.JSONEq(t, `{"title":"T"}`, string(body))
}

func TestSearchParams(t *testing.T) {
	limit := 5
	p := SearchParams{
		Limit:       &limit,
		Collections: []string{"a", "b"},
		BBox:        []float64{5.96, 45.82, 10.49, 47.81},
		Datetime:    DatetimeInterval(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}),
	}
	v, err := p.values()
	require.NoError(t, err)
	assert.Equal(t, "5", v.Get("limit"))
	assert.Equal(t, "a,b", v.Get("collections"))
	assert.Equal(t, "5.96,45.82,10.49,47.81", v.Get("bbox"))
	assert.Equal(t, "2020-01-01T00:00:00Z/..", v.Get("datetime"))
}

func TestDatetimeInterval(t *testing.T) {
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2020-01-01T00:00:00Z", DatetimeInterval(day, day))
	assert.Equal(t, "../2020-01-01T00:00:00Z", DatetimeInterval(time.Time{}, day))
	assert.Equal(t, "2020-01-01T00:00:00Z/2020-01-02T00:00:00Z", DatetimeInterval(day, day.Add(24*time.Hour)))
}
