// Package client is a Go client for the STAC API served by this module. It
// reads collections, items and assets, follows rel="next" links
// transparently, and performs token authenticated writes.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	stac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/go-stac-api/auth"
)

// Middleware manipulates an outgoing *http.Request before it is executed.
type Middleware func(context.Context, *http.Request) error

// NextHandler determines the next-page URL from a list of STAC links.
// Return nil if there's no next page.
type NextHandler func([]*stac.Link) (*url.URL, error)

// RequestOption configures a single outgoing request, such as setting a
// precondition header.
type RequestOption func(*http.Request) error

// ClientOption configures the Client.
type ClientOption func(*Client)

// Client represents a STAC API client
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	nextHandler NextHandler
	middleware  []Middleware
	retryPolicy RetryPolicy
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithNextHandler configures a custom NextHandler for pagination.
func WithNextHandler(h NextHandler) ClientOption {
	return func(c *Client) { c.nextHandler = h }
}

// WithMiddleware registers one or more request-middleware functions.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) { c.middleware = append(c.middleware, mw...) }
}

// WithRetryPolicy replaces the retry policy. A nil policy disables retries.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.retryPolicy = p }
}

// WithToken authenticates every request with "Authorization: Token <token>".
// It wraps the transport of the HTTP client configured so far.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		if token == "" {
			return
		}
		hc := *c.httpClient
		hc.Transport = &auth.TokenTransport{Token: token, Base: hc.Transport}
		c.httpClient = &hc
	}
}

// NewClient creates a new client for the API whose landing page is baseURL,
// for example "http://localhost:8080/api/stac/v0.9/".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if u.RawPath != "" && !strings.HasSuffix(u.RawPath, "/") {
		u.RawPath += "/"
	}
	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		nextHandler: DefaultNextHandler,
		retryPolicy: DefaultRetryPolicy,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// DefaultNextHandler looks for the first link with rel="next" and returns its
// Href parsed as a URL.
func DefaultNextHandler(links []*stac.Link) (*url.URL, error) {
	nl := findLinkByRel(links, "next")
	if nl == nil {
		return nil, nil
	}
	if nl.Href == "" {
		return nil, fmt.Errorf("found 'next' link with empty Href")
	}
	next, err := url.Parse(nl.Href)
	if err != nil {
		return nil, fmt.Errorf("invalid 'next' link URL '%s': %w", nl.Href, err)
	}
	return next, nil
}

func findLinkByRel(links []*stac.Link, rel string) *stac.Link {
	for i := range links {
		if links[i] != nil && links[i].Rel == rel {
			return links[i]
		}
	}
	return nil
}

// IfMatch makes a write conditional on the current ETag of the resource.
func IfMatch(etag string) RequestOption {
	return Header("If-Match", quote(etag))
}

// IfNoneMatch sets the If-None-Match header.
func IfNoneMatch(etag string) RequestOption {
	return Header("If-None-Match", quote(etag))
}

// Header returns a RequestOption that sets a header value.
func Header(key, value string) RequestOption {
	return func(req *http.Request) error {
		if key != "" {
			req.Header.Set(key, value)
		}
		return nil
	}
}

func quote(etag string) string {
	if etag == "*" || strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, "W/") {
		return etag
	}
	return `"` + etag + `"`
}

// pageDecoder turns one page body into its entries and links.
type pageDecoder[T any] func(r io.Reader) ([]*T, []*stac.Link, error)

// iteratePages drives the pagination of a list endpoint. Every page is
// fetched with method and body; a POST search keeps its body while
// following the next links since the cursor travels in the link query.
func iteratePages[T any](ctx context.Context, cli *Client, method, startPath string, body any, decode pageDecoder[T]) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		start, err := url.Parse(startPath)
		if err != nil {
			yield(nil, fmt.Errorf("invalid start path %q: %w", startPath, err))
			return
		}
		current := cli.baseURL.ResolveReference(start)

		for {
			resp, err := cli.doRequest(ctx, method, current.String(), body, nil)
			if err != nil {
				yield(nil, err)
				return
			}
			items, links, err := decode(resp.Body)
			resp.Body.Close()
			if err != nil {
				yield(nil, fmt.Errorf("error decoding response from %s: %w", current, err))
				return
			}
			for _, v := range items {
				if !yield(v, nil) {
					return
				}
			}

			next, err := cli.nextHandler(links)
			if err != nil {
				yield(nil, fmt.Errorf("error determining next page from %s: %w", current, err))
				return
			}
			if next == nil {
				return
			}
			next = current.ResolveReference(next)
			if next.String() == current.String() {
				return
			}
			current = next
		}
	}
}

// doRequest builds a request, runs the middleware and executes it with the
// retry policy. Responses outside 2xx are returned as *APIError.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, body any, opts []RequestOption) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = encodeBody(body); err != nil {
			return nil, fmt.Errorf("error encoding request body for %s: %w", rawURL, err)
		}
	}

	build := func() (*http.Request, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, fmt.Errorf("error creating request for %s: %w", rawURL, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for _, opt := range opts {
			if opt == nil {
				continue
			}
			if err := opt(req); err != nil {
				return nil, err
			}
		}
		for _, mw := range c.middleware {
			if err := mw(ctx, req); err != nil {
				return nil, fmt.Errorf("error applying middleware for %s: %w", rawURL, err)
			}
		}
		return req, nil
	}

	resp, err := c.retry(ctx, method, func() (*http.Response, error) {
		req, err := build()
		if err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, newAPIError(resp)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	return json.Marshal(body)
}

// doJSON performs one request and decodes its body into out unless out is
// nil. It returns the response ETag.
func (c *Client) doJSON(ctx context.Context, method string, u *url.URL, body any, out any, opts []RequestOption) (string, error) {
	resp, err := c.doRequest(ctx, method, u.String(), body, opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return etag, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("error decoding response from %s: %w", u, err)
	}
	return etag, nil
}

func (c *Client) resolve(segments ...string) *url.URL {
	return c.baseURL.JoinPath(segments...)
}
