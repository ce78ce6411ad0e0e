// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package transport carries requests of the rows client to the API

Three transports are available:

  - HTTP talks to the API over the network, given a base URL.
  - Router talks directly to an http.Handler, usually a mux router. Instead of marshalling HTTP,
    requests are served into a recorder. This is the tool of choice for in-process hosts and unit tests.
  - Resolver hands every call to a navigation resolver provided by a mobile host.

A non-2xx status is not an error on this level. Only failures to deliver a request are.
*/
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/rowclient/core/query"
)

// Transport delivers requests to the rows API
type Transport interface {
	Get(ctx context.Context, path string, q query.Query) (*Response, error)
	Post(ctx context.Context, path string, q query.Query, body interface{}) (*Response, error)
	Delete(ctx context.Context, path string, q query.Query) (*Response, error)
}

// Response is a response of the API
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Resolved is set for responses of a navigation resolver. Their body is always
	// a response envelope, also for views.
	Resolved bool
}

// IsJSON returns true if the response declares a JSON content type
func (r *Response) IsJSON() bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "json")
}

// HeaderFunc returns the headers to be added to a request
type HeaderFunc func(ctx context.Context) http.Header

// Option configures the HTTP and the Router transport
type Option func(*options)

type options struct {
	headers    []HeaderFunc
	httpClient *http.Client
}

// WithHeaders adds a header function whose headers are added to every request
func WithHeaders(h HeaderFunc) Option {
	return func(o *options) {
		if h != nil {
			o.headers = append(o.headers, h)
		}
	}
}

// WithHTTPClient overrides the http client of the HTTP transport
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// marshalBody encodes a request body. body can also be a []byte.
func marshalBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if j, ok := body.([]byte); ok {
		return j, nil
	}
	return json.Marshal(body)
}

// pathWithQuery appends the encoded query to the path
func pathWithQuery(path string, q query.Query) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if qs := q.Encode(); qs != "" {
		return path + "?" + qs
	}
	return path
}

// newRequest creates the request with headers from all header functions
func newRequest(ctx context.Context, o options, method, url string, body interface{}) (*http.Request, error) {
	j, err := marshalBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s to %s: %w", method, url, err)
	}
	var reader io.Reader
	if j != nil {
		reader = bytes.NewReader(j)
	}
	r, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for _, h := range o.headers {
		for key, values := range h(ctx) {
			for _, value := range values {
				r.Header.Add(key, value)
			}
		}
	}
	if j != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return r, nil
}
