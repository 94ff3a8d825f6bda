package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// APIError is a failed response decoded from the API error body
// {"code": <status>, "description": <text>}.
type APIError struct {
	Status      int    `json:"-"`
	Code        int    `json:"code"`
	Description string `json:"description"`
	Raw         []byte `json:"-"`
}

func newAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := &APIError{Status: resp.StatusCode, Raw: data}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Description = string(data)
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Description == "" {
		return fmt.Sprintf("stac api: status %d", e.Status)
	}
	return fmt.Sprintf("stac api: status %d: %s", e.Status, e.Description)
}

// Temporary reports whether the error may be retried.
func (e *APIError) Temporary() bool {
	if e == nil {
		return false
	}
	return e.Status == http.StatusTooManyRequests || (e.Status >= 500 && e.Status < 600)
}

// IsNotFound reports whether err is a 404 answer of the API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsPreconditionFailed reports whether err is a 412 answer of the API.
func IsPreconditionFailed(err error) bool {
	return hasStatus(err, http.StatusPreconditionFailed)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
