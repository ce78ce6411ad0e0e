// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relabs-tech/rowclient/core/query"
)

// HTTP is a transport over the network
type HTTP struct {
	url        string
	httpClient *http.Client
	opts       options
}

// NewHTTP creates a transport for the API at baseURL
func NewHTTP(baseURL string, opts ...Option) (*HTTP, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("transport: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("transport: invalid base URL: %w", err)
	}
	o := applyOptions(opts)
	h := &HTTP{
		url:        strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		opts:       o,
	}
	if o.httpClient != nil {
		h.httpClient = o.httpClient
	}
	return h, nil
}

// Get sends a GET request
func (h *HTTP) Get(ctx context.Context, path string, q query.Query) (*Response, error) {
	return h.do(ctx, http.MethodGet, pathWithQuery(path, q), nil)
}

// Post sends a POST request with a JSON body. body can also be a []byte.
func (h *HTTP) Post(ctx context.Context, path string, q query.Query, body interface{}) (*Response, error) {
	return h.do(ctx, http.MethodPost, pathWithQuery(path, q), body)
}

// Delete sends a DELETE request
func (h *HTTP) Delete(ctx context.Context, path string, q query.Query) (*Response, error) {
	return h.do(ctx, http.MethodDelete, pathWithQuery(path, q), nil)
}

func (h *HTTP) do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	r, err := newRequest(ctx, h.opts, method, h.url+path, body)
	if err != nil {
		return nil, err
	}
	res, err := h.httpClient.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       resBody,
	}, nil
}
