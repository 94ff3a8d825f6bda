// Package auth provides client side round trippers carrying the write
// credentials of the API.
package auth

import "net/http"

// Authorization schemes accepted by the API.
const (
	SchemeToken  = "Token"
	SchemeBearer = "Bearer"
)

// TokenTransport injects "Authorization: <Scheme> <Token>" into outgoing
// requests. Scheme defaults to "Token".
type TokenTransport struct {
	Token  string
	Scheme string
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *TokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Token == "" {
		return base.RoundTrip(req)
	}
	scheme := t.Scheme
	if scheme == "" {
		scheme = SchemeToken
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", scheme+" "+t.Token)
	return base.RoundTrip(clone)
}

// BearerTokenTransport injects a bearer token.
func BearerTokenTransport(token string, base http.RoundTripper) *TokenTransport {
	return &TokenTransport{Token: token, Scheme: SchemeBearer, Base: base}
}
