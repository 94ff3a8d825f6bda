package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/goccy/go-json"

	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/store"
	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
)

const maxBodyBytes = 10 << 20

var (
	errNotFound         = apierr.ErrNotFound
	errMethodNotAllowed = apierr.New(http.StatusMethodNotAllowed, "Method not allowed.")
	errTooManyRequests  = apierr.New(http.StatusTooManyRequests, "Request was throttled.")
	errConflict         = apierr.New(http.StatusConflict, "The resource was modified concurrently, please retry.")
)

// respondJSON writes v as the JSON body with status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("failed to write response")
	}
}

// respondError writes the normalized error body of err. Internal faults in
// debug mode without error propagation render a plain text diagnostic page.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	err = translateStoreError(err)
	log := logging.Ctx(r.Context())
	if apierr.IsInternal(err) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("internal fault")
		if s.cfg.Server.Debug && !s.cfg.Server.DebugPropagateAPIErrors {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "%s %s\n\n%v\n\n%s", r.Method, r.URL.Path, err, debug.Stack())
			return
		}
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	status, body := apierr.Normalize(err)
	if status >= http.StatusBadRequest {
		w.Header().Del("ETag")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	}
	respondJSON(w, r, status, body)
}

// translateStoreError maps store sentinels onto the API taxonomy.
func translateStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apierr.ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return apierr.Validation("id: A resource with this id already exists.")
	case errors.Is(err, store.ErrConflict):
		return errConflict
	}
	return err
}

// readBody reads the request body up to maxBodyBytes.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, apierr.New(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	return data, nil
}

// quoteETag returns the header form of an entity tag.
func quoteETag(tag string) string {
	return `"` + tag + `"`
}

// matchETag reports whether the If-Match/If-None-Match header value lists
// tag or is "*". Weak tags compare by their opaque part.
func matchETag(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if strings.Trim(candidate, `"`) == tag {
			return true
		}
	}
	return false
}

// notModified writes 304 when the GET request already holds tag.
func notModified(w http.ResponseWriter, r *http.Request, tag string) bool {
	w.Header().Set("ETag", quoteETag(tag))
	inm := r.Header.Get("If-None-Match")
	if inm == "" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		return false
	}
	if matchETag(inm, tag) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// checkPreconditions evaluates If-Match and If-None-Match of a write
// against the current tag.
func checkPreconditions(r *http.Request, tag string) error {
	if im := r.Header.Get("If-Match"); im != "" && !matchETag(im, tag) {
		return apierr.PreconditionFailed()
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && matchETag(inm, tag) {
		return apierr.PreconditionFailed()
	}
	return nil
}
