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
	"net/http/httptest"

	"github.com/relabs-tech/rowclient/core/query"
)

// Router is an in-process transport. Requests are served by the handler directly.
type Router struct {
	router http.Handler
	opts   options
}

// NewRouter creates a transport which talks to router, typically a *mux.Router
func NewRouter(router http.Handler, opts ...Option) (*Router, error) {
	if router == nil {
		return nil, errors.New("transport: router is required")
	}
	return &Router{router: router, opts: applyOptions(opts)}, nil
}

// Get serves a GET request
func (rt *Router) Get(ctx context.Context, path string, q query.Query) (*Response, error) {
	return rt.do(ctx, http.MethodGet, pathWithQuery(path, q), nil)
}

// Post serves a POST request with a JSON body. body can also be a []byte.
func (rt *Router) Post(ctx context.Context, path string, q query.Query, body interface{}) (*Response, error) {
	return rt.do(ctx, http.MethodPost, pathWithQuery(path, q), body)
}

// Delete serves a DELETE request
func (rt *Router) Delete(ctx context.Context, path string, q query.Query) (*Response, error) {
	return rt.do(ctx, http.MethodDelete, pathWithQuery(path, q), nil)
}

func (rt *Router) do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	r, err := newRequest(ctx, rt.opts, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	rt.router.ServeHTTP(rec, r)
	res := rec.Result()
	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       rec.Body.Bytes(),
	}, nil
}
