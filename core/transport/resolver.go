// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/rowclient/core/query"
)

// Navigation is a call handed to the navigation resolver of a mobile host.
//
// Pathname is the lower case method immediately followed by the path, e.g. "get/api/books".
// Query is the encoded query string.
type Navigation struct {
	Pathname string      `json:"pathname"`
	Query    string      `json:"query"`
	Body     interface{} `json:"body,omitempty"`
	Alerts   []string    `json:"alerts"`
}

// Method returns the upper case method of the navigation
func (n Navigation) Method() string {
	i := strings.Index(n.Pathname, "/")
	if i < 0 {
		return strings.ToUpper(n.Pathname)
	}
	return strings.ToUpper(n.Pathname[:i])
}

// Path returns the path of the navigation
func (n Navigation) Path() string {
	i := strings.Index(n.Pathname, "/")
	if i < 0 {
		return "/"
	}
	return n.Pathname[i:]
}

// Resolver resolves navigations. It returns the response envelope of the call.
type Resolver interface {
	Resolve(ctx context.Context, nav Navigation) (json.RawMessage, error)
}

// ResolverFunc is a function that implements Resolver
type ResolverFunc func(ctx context.Context, nav Navigation) (json.RawMessage, error)

// Resolve calls f
func (f ResolverFunc) Resolve(ctx context.Context, nav Navigation) (json.RawMessage, error) {
	return f(ctx, nav)
}

// ResolverTransport routes all calls through a host provided resolver. Resolved
// envelopes are reported as 200 responses with a JSON content type.
type ResolverTransport struct {
	resolver Resolver
}

// NewResolver creates a transport for the given resolver
func NewResolver(resolver Resolver) (*ResolverTransport, error) {
	if resolver == nil {
		return nil, errors.New("transport: resolver is required")
	}
	return &ResolverTransport{resolver: resolver}, nil
}

// Get resolves a GET navigation
func (rt *ResolverTransport) Get(ctx context.Context, path string, q query.Query) (*Response, error) {
	return rt.resolve(ctx, http.MethodGet, path, q, nil)
}

// Post resolves a POST navigation
func (rt *ResolverTransport) Post(ctx context.Context, path string, q query.Query, body interface{}) (*Response, error) {
	return rt.resolve(ctx, http.MethodPost, path, q, body)
}

// Delete resolves a DELETE navigation
func (rt *ResolverTransport) Delete(ctx context.Context, path string, q query.Query) (*Response, error) {
	return rt.resolve(ctx, http.MethodDelete, path, q, nil)
}

func (rt *ResolverTransport) resolve(ctx context.Context, method, path string, q query.Query, body interface{}) (*Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	data, err := rt.resolver.Resolve(ctx, Navigation{
		Pathname: strings.ToLower(method) + path,
		Query:    q.Encode(),
		Body:     body,
		Alerts:   []string{},
	})
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       data,
		Resolved:   true,
	}, nil
}
