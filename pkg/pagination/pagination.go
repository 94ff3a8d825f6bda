// Package pagination implements cursor pagination over a single total-order
// key. A page request carries a validated limit and an opaque cursor; stores
// answer it with a Window and the Paginator turns the result into a page
// plus its next and previous links.
package pagination

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
)

// Query parameter names.
const (
	LimitParam  = "limit"
	CursorParam = "cursor"
)

// Config holds the page size bounds.
type Config struct {
	DefaultLimit int `koanf:"default_limit" validate:"min=1"`
	MaxLimit     int `koanf:"max_limit" validate:"min=1,gtefield=DefaultLimit"`
}

// DefaultConfig returns the default bounds of 100 items per page.
func DefaultConfig() Config {
	return Config{DefaultLimit: 100, MaxLimit: 100}
}

// Cursor is the decoded position of a page.
type Cursor struct {
	// Position is the key the page starts after (forward) or before (reverse).
	Position string `json:"p"`
	Reverse  bool   `json:"r,omitempty"`
}

// Encode returns the opaque token of c.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// ErrInvalidCursor is the 404 fault of a cursor that does not decode.
var ErrInvalidCursor = apierr.New(http.StatusNotFound, "Invalid cursor")

// DecodeCursor parses a token produced by Cursor.Encode.
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, ErrInvalidCursor
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, ErrInvalidCursor
	}
	return c, nil
}

// Window is what a store must return for a page request: at most Limit
// entries with keys strictly after Position in ascending order, or strictly
// before Position in descending order when Reverse is set. An empty Position
// means the start (or the end when reversed) of the key space.
type Window struct {
	Position string
	Reverse  bool
	Limit    int
}

// ApplyWindow selects the window w from entries already sorted ascending by
// key.
func ApplyWindow[T any](sorted []T, key func(T) string, w Window) []T {
	var out []T
	if !w.Reverse {
		start := 0
		if w.Position != "" {
			start = sort.Search(len(sorted), func(i int) bool { return key(sorted[i]) > w.Position })
		}
		for i := start; i < len(sorted) && (w.Limit <= 0 || len(out) < w.Limit); i++ {
			out = append(out, sorted[i])
		}
		return out
	}
	end := len(sorted)
	if w.Position != "" {
		end = sort.Search(len(sorted), func(i int) bool { return key(sorted[i]) >= w.Position })
	}
	for i := end - 1; i >= 0 && (w.Limit <= 0 || len(out) < w.Limit); i-- {
		out = append(out, sorted[i])
	}
	return out
}

// Request is a validated page request.
type Request struct {
	Limit  int
	Cursor Cursor
}

// Window returns the store window of r, one entry larger than the page to
// detect whether more entries exist.
func (r Request) Window() Window {
	return Window{Position: r.Cursor.Position, Reverse: r.Cursor.Reverse, Limit: r.Limit + 1}
}

// Paginator validates page requests and builds pages.
type Paginator struct {
	cfg Config
}

// New returns a Paginator with the given bounds.
func New(cfg Config) *Paginator {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultConfig().MaxLimit
	}
	return &Paginator{cfg: cfg}
}

// ParseLimit validates a raw limit parameter. An empty value selects the
// default limit.
func (p *Paginator) ParseLimit(raw string) (int, error) {
	if raw == "" {
		return p.cfg.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.BadPageSize("invalid limit query parameter: must be an integer")
	}
	if limit <= 0 {
		return 0, apierr.BadPageSize(fmt.Sprintf("limit query parameter to small, must be in range 1..%d", p.cfg.MaxLimit))
	}
	if limit > p.cfg.MaxLimit {
		return 0, apierr.BadPageSize(fmt.Sprintf("limit query parameter to big, must be in range 1..%d", p.cfg.MaxLimit))
	}
	return limit, nil
}

// Parse reads the limit and cursor parameters of q.
func (p *Paginator) Parse(q url.Values) (Request, error) {
	limit, err := p.ParseLimit(q.Get(LimitParam))
	if err != nil {
		return Request{}, err
	}
	req := Request{Limit: limit}
	if token := q.Get(CursorParam); token != "" {
		if req.Cursor, err = DecodeCursor(token); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

// Page is one page of entries with the cursors of its neighbours.
type Page[T any] struct {
	Items    []T
	Next     *Cursor
	Previous *Cursor
}

// Paginate builds the page of req from the entries a store returned for
// req.Window().
func Paginate[T any](req Request, fetched []T, key func(T) string) Page[T] {
	more := len(fetched) > req.Limit
	if more {
		fetched = fetched[:req.Limit]
	}
	items := make([]T, len(fetched))
	copy(items, fetched)

	var page Page[T]
	if req.Cursor.Reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		page.Items = items
		if len(items) > 0 {
			page.Next = &Cursor{Position: key(items[len(items)-1])}
			if more {
				page.Previous = &Cursor{Position: key(items[0]), Reverse: true}
			}
		}
		return page
	}

	page.Items = items
	if more {
		page.Next = &Cursor{Position: key(items[len(items)-1])}
	}
	if req.Cursor.Position != "" {
		pos := req.Cursor.Position
		if len(items) > 0 {
			pos = key(items[0])
		}
		page.Previous = &Cursor{Position: pos, Reverse: true}
	}
	return page
}

// Links returns the next and previous links of the page, built from self
// with the cursor parameter replaced and every other parameter kept.
func (pg Page[T]) Links(self *url.URL) []*render.Object {
	links := []*render.Object{}
	if pg.Next != nil {
		links = append(links, render.LinkObject("next", withCursor(self, *pg.Next)))
	}
	if pg.Previous != nil {
		links = append(links, render.LinkObject("previous", withCursor(self, *pg.Previous)))
	}
	return links
}

func withCursor(self *url.URL, c Cursor) string {
	u := *self
	q := u.Query()
	q.Set(CursorParam, c.Encode())
	u.RawQuery = q.Encode()
	return u.String()
}
