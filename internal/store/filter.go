package store

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// ItemFilter restricts the items returned by ListItems. The zero value
// matches every item. When IDs is set every other criterion except
// Collections is ignored.
type ItemFilter struct {
	Collections []string
	IDs         []string
	Bbox        *orb.Bound
	Intersects  orb.Geometry
	Datetime    *DatetimeRange
	Query       []QueryClause
}

// Match reports whether it satisfies f.
func (f ItemFilter) Match(it *stac.Item) bool {
	if len(f.Collections) > 0 && !slices.Contains(f.Collections, it.Collection) {
		return false
	}
	if len(f.IDs) > 0 {
		return slices.Contains(f.IDs, it.Name)
	}
	if f.Bbox != nil || f.Intersects != nil {
		b, ok := it.Bound()
		if !ok {
			return false
		}
		if f.Bbox != nil && !f.Bbox.Intersects(b) {
			return false
		}
		if f.Intersects != nil && !f.Intersects.Bound().Intersects(b) {
			return false
		}
	}
	if f.Datetime != nil && !f.Datetime.Match(it) {
		return false
	}
	for _, q := range f.Query {
		if !q.Match(it) {
			return false
		}
	}
	return true
}

// SingleCollection returns the collection name when f is restricted to
// exactly one collection.
func (f ItemFilter) SingleCollection() (string, bool) {
	if len(f.Collections) == 1 {
		return f.Collections[0], true
	}
	return "", false
}

// ParseBbox parses "minx,miny,maxx,maxy". Equal corners denote a point.
func ParseBbox(raw string) (*orb.Bound, error) {
	invalid := apierr.Validation("Invalid bbox query parameter,  has to contain 4 values. f.ex. bbox=5.96,45.82,10.49,47.81")
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, invalid
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, invalid
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, invalid
	}
	b := orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
	return &b, nil
}

// ParseBboxValues parses the array form of a bbox used by search bodies.
func ParseBboxValues(values []float64) (*orb.Bound, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ParseBbox(strings.Join(parts, ","))
}

// ParseIntersects parses a GeoJSON geometry used as a spatial filter.
func ParseIntersects(raw []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil || g.Geometry() == nil {
		return nil, apierr.Validationf("Invalid intersects parameter: Could not transform %s to a geometry", raw)
	}
	if g.Geometry().Bound().IsEmpty() && g.Geometry().GeoJSONType() != geojson.TypePoint {
		return nil, apierr.Validation("Invalid geometry.")
	}
	return g.Geometry(), nil
}

// DatetimeRange is a parsed datetime query. Exact selects items whose
// datetime equals Start; otherwise a nil bound is open.
type DatetimeRange struct {
	Start *time.Time
	End   *time.Time
	Exact bool
}

// ParseDatetime parses "instant", "start/end", "../end" and "start/..".
func ParseDatetime(raw string) (*DatetimeRange, error) {
	start, end, hasSep := strings.Cut(raw, "/")
	r := &DatetimeRange{}
	var err error
	if start != ".." {
		if r.Start, err = parseQueryTime(start); err != nil {
			return nil, apierr.Validation("Invalid datetime query parameter, must be isoformat")
		}
	}
	if end != "" && end != ".." {
		if r.End, err = parseQueryTime(end); err != nil {
			return nil, apierr.Validation("Invalid datetime query parameter, must be isoformat")
		}
	}
	if start == ".." && (end == "" || end == "..") {
		return nil, apierr.Validation("Invalid datetime query parameter, cannot start with open range when no end range is defined")
	}
	r.Exact = !hasSep || end == ""
	return r, nil
}

// Match reports whether the item falls in r.
func (r *DatetimeRange) Match(it *stac.Item) bool {
	p := it.Properties
	if r.Exact {
		return p.Datetime != nil && p.Datetime.Equal(*r.Start)
	}
	switch {
	case r.Start == nil:
		return notAfter(p.Datetime, *r.End) || notAfter(p.EndDatetime, *r.End)
	case r.End == nil:
		return notBefore(p.Datetime, *r.Start) || notBefore(p.EndDatetime, *r.Start)
	default:
		if notBefore(p.Datetime, *r.Start) && notAfter(p.Datetime, *r.End) {
			return true
		}
		return notBefore(p.StartDatetime, *r.Start) && notAfter(p.EndDatetime, *r.End)
	}
}

func notBefore(t *time.Time, bound time.Time) bool {
	return t != nil && !t.Before(bound)
}

func notAfter(t *time.Time, bound time.Time) bool {
	return t != nil && !t.After(bound)
}

var queryTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseQueryTime accepts ISO 8601 timestamps with or without offset.
// Timestamps without offset are UTC.
func parseQueryTime(s string) (*time.Time, error) {
	var lastErr error
	for _, layout := range queryTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			t = t.UTC()
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

var (
	queryTimeFields   = []string{"datetime", "created", "updated"}
	queryStringFields = []string{"title"}
	queryTimeOps      = []string{"eq", "neq", "lt", "lte", "gt", "gte"}
	queryStringOps    = []string{"startsWith", "endsWith", "contains", "in"}
)

// QueryClause is one field/operator/value test of a query filter.
type QueryClause struct {
	Field    string
	Operator string
	Times    []time.Time
	Strings  []string
}

// ParseQuery parses the JSON query filter, e.g.
// {"title":{"startsWith":"Swiss"},"created":{"gte":"2020-01-01T00:00:00Z"}}.
func ParseQuery(raw []byte) ([]QueryClause, error) {
	var doc map[string]map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apierr.Validationf("The application could not decode the JSON.Please check the syntax (%v).%s", err, raw)
	}
	fields := make([]string, 0, len(doc))
	for k := range doc {
		fields = append(fields, k)
	}
	slices.Sort(fields)

	operators := append(slices.Clone(queryTimeOps), queryStringOps...)
	queriable := append(slices.Clone(queryTimeFields), queryStringFields...)

	var out []QueryClause
	for _, field := range fields {
		if !slices.Contains(queriable, field) {
			return nil, apierr.Validationf("Invalid field in query argument. The field %s is not a propertie. Use one of these %s", field, quotedList(queriable))
		}
		ops := make([]string, 0, len(doc[field]))
		for op := range doc[field] {
			ops = append(ops, op)
		}
		slices.Sort(ops)
		for _, op := range ops {
			if !slices.Contains(operators, op) {
				return nil, apierr.Validationf("Invalid operator in query argument. The operator %s is not supported. Use: %s", op, quotedList(operators))
			}
			clause, err := newQueryClause(field, op, doc[field][op])
			if err != nil {
				return nil, err
			}
			out = append(out, clause)
		}
	}
	return out, nil
}

func newQueryClause(field, op string, value any) (QueryClause, error) {
	c := QueryClause{Field: field, Operator: op}
	values, isList := value.([]any)
	if !isList {
		values = []any{value}
	}
	if isList != (op == "in") {
		return c, apierr.Validationf("Invalid value for operator %s of field %s", op, field)
	}

	if slices.Contains(queryTimeFields, field) {
		if op != "in" && !slices.Contains(queryTimeOps, op) {
			return c, apierr.Validationf("You are not allowed to compare a number or a date witha string operator.For numbers use one of these %s", quotedList(queryTimeOps))
		}
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				return c, apierr.Validationf("Invalid dateformat: (%v is not a string)", v)
			}
			t, err := parseQueryTime(s)
			if err != nil {
				return c, apierr.Validationf("Invalid dateformat: (Invalid isoformat string: '%s')", s)
			}
			c.Times = append(c.Times, *t)
		}
		return c, nil
	}

	if !slices.Contains(queryStringOps, op) && op != "eq" && op != "neq" {
		return c, apierr.Validationf("You are not allowed to compare a string/date (%s) with a number operator.for string use one of these %s", field, quotedList(queryStringOps))
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return c, apierr.Validationf("Invalid value for field %s, must be a string", field)
		}
		c.Strings = append(c.Strings, s)
	}
	return c, nil
}

// Match reports whether the item satisfies the clause. Items without the
// queried value never match.
func (c QueryClause) Match(it *stac.Item) bool {
	if c.Times != nil {
		var t *time.Time
		switch c.Field {
		case "datetime":
			t = it.Properties.Datetime
		case "created":
			t = &it.Created
		case "updated":
			t = &it.Updated
		}
		if t == nil {
			return false
		}
		return compareTime(*t, c.Operator, c.Times)
	}
	if it.Properties.Title == "" {
		return false
	}
	return compareString(it.Properties.Title, c.Operator, c.Strings)
}

func compareTime(t time.Time, op string, values []time.Time) bool {
	v := values[0]
	switch op {
	case "eq":
		return t.Equal(v)
	case "neq":
		return !t.Equal(v)
	case "lt":
		return t.Before(v)
	case "lte":
		return !t.After(v)
	case "gt":
		return t.After(v)
	case "gte":
		return !t.Before(v)
	case "in":
		return slices.ContainsFunc(values, t.Equal)
	}
	return false
}

func compareString(s, op string, values []string) bool {
	v := values[0]
	switch op {
	case "eq":
		return s == v
	case "neq":
		return s != v
	case "startsWith":
		return strings.HasPrefix(s, v)
	case "endsWith":
		return strings.HasSuffix(s, v)
	case "contains":
		return strings.Contains(s, v)
	case "in":
		return slices.Contains(values, s)
	}
	return false
}

func quotedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("'%s'", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
