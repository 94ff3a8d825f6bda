package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/robert-malhotra/go-stac-api/internal/store"
	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
)

// searchBody is the POST /search payload. date_time is accepted as an
// alias of datetime.
type searchBody struct {
	IDs         []string        `json:"ids"`
	Collections []string        `json:"collections"`
	Bbox        []float64       `json:"bbox"`
	Datetime    string          `json:"datetime"`
	DateTime    string          `json:"date_time"`
	Query       json.RawMessage `json:"query"`
	Intersects  json.RawMessage `json:"intersects"`
	Limit       json.RawMessage `json:"limit"`
	Cursor      string          `json:"cursor"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var (
		filter store.ItemFilter
		params url.Values
		body   map[string]any
		err    error
	)
	if r.Method == http.MethodPost {
		filter, params, body, err = parseSearchBody(r)
	} else {
		params = r.URL.Query()
		filter, err = parseSearchQuery(params)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	req, err := s.pager.Parse(params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	l := s.linker(r)
	links := []*render.Object{
		render.LinkObject("self", l.URL("search")),
		render.LinkObject("root", l.Root()),
		render.LinkObject("parent", l.Root()),
	}
	if body != nil {
		delete(body, pagination.CursorParam)
	}
	s.respondItemPage(w, r, filter, req, links, selfURL(l, r, "search"), body)
}

func parseSearchQuery(q url.Values) (store.ItemFilter, error) {
	var f store.ItemFilter
	var err error
	if ids := q.Get("ids"); ids != "" {
		f.IDs = splitList(ids)
		return f, nil
	}
	if raw := q.Get("query"); raw != "" {
		if f.Query, err = store.ParseQuery([]byte(raw)); err != nil {
			return f, err
		}
	}
	if c := q.Get("collections"); c != "" {
		f.Collections = splitList(c)
	}
	if raw := q.Get("bbox"); raw != "" {
		if f.Bbox, err = store.ParseBbox(raw); err != nil {
			return f, err
		}
	}
	if raw := q.Get("datetime"); raw != "" {
		if f.Datetime, err = store.ParseDatetime(raw); err != nil {
			return f, err
		}
	}
	return f, nil
}

// parseSearchBody decodes a POST search. The limit and cursor of the body,
// or else of the query string, are returned as page parameters.
func parseSearchBody(r *http.Request) (store.ItemFilter, url.Values, map[string]any, error) {
	var f store.ItemFilter
	data, err := readBody(r)
	if err != nil {
		return f, nil, nil, err
	}
	var in searchBody
	var raw map[string]any
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return f, nil, nil, apierr.Validationf("JSON parse error - %v", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return f, nil, nil, apierr.Validationf("JSON parse error - %v", err)
	}

	params := r.URL.Query()
	if limit := rawLimit(in.Limit); limit != "" {
		params.Set(pagination.LimitParam, limit)
	}
	if in.Cursor != "" {
		params.Set(pagination.CursorParam, in.Cursor)
	}

	if len(in.IDs) > 0 {
		f.IDs = in.IDs
		return f, params, raw, nil
	}
	f.Collections = in.Collections
	if in.Bbox != nil {
		if f.Bbox, err = store.ParseBboxValues(in.Bbox); err != nil {
			return f, nil, nil, err
		}
	}
	dt := in.Datetime
	if dt == "" {
		dt = in.DateTime
	}
	if dt != "" {
		if f.Datetime, err = store.ParseDatetime(dt); err != nil {
			return f, nil, nil, err
		}
	}
	if len(in.Query) > 0 && string(in.Query) != "null" {
		if f.Query, err = store.ParseQuery(in.Query); err != nil {
			return f, nil, nil, err
		}
	}
	if len(in.Intersects) > 0 && string(in.Intersects) != "null" {
		if f.Intersects, err = store.ParseIntersects(in.Intersects); err != nil {
			return f, nil, nil, err
		}
	}
	return f, params, raw, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// rawLimit returns the text of a body limit given as a number or a string,
// leaving its validation to the paginator.
func rawLimit(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return text
}
