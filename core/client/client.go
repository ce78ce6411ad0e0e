// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides typed access to a row-oriented REST API

The client talks to named tables ("rows"), server rendered views and server actions. Depending
on the configuration it uses the network, an in-process router, or the navigation resolver of a
mobile host.

Read operations (FetchRows, FetchOneRow, LoadView, RunAction) return errors. Write operations
(InsertRow, UpdateRow, DeleteRow) never do: they return a WriteResult, which carries the
server message on failure.

Example:

	c, err := client.New(client.Config{
		URL:       "https://example.com",
		CSRFToken: func(ctx context.Context) string { return token },
	})
	rows, err := c.FetchRows(ctx, "books", query.Query{"author": "Tolkien"})
	result := c.InsertRow(ctx, "books", client.Row{"title": "The Hobbit"})
	if !result.OK {
		log.Println(result.Message)
	}
*/
package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/rowclient/core"
	"github.com/relabs-tech/rowclient/core/logger"
	"github.com/relabs-tech/rowclient/core/transport"
)

// TokenProvider returns the anti-forgery token for a request
type TokenProvider func(ctx context.Context) string

// StaticToken returns a TokenProvider for a fixed token
func StaticToken(token string) TokenProvider {
	return func(context.Context) string { return token }
}

// CompletionFunc is notified with the response data of every action call, successful or not.
// An error fails the action call.
type CompletionFunc func(ctx context.Context, data json.RawMessage) error

// Config holds the dependencies of a client.
//
// The transport is selected from the first of Transport, Resolver, Router and URL that is set.
type Config struct {
	// Transport is used as is
	Transport transport.Transport
	// Resolver is the navigation resolver of a mobile host
	Resolver transport.Resolver
	// Router serves requests in-process, typically a *mux.Router
	Router http.Handler
	// URL is the base URL of the API
	URL string
	// HTTPClient optionally overrides the http client for URL
	HTTPClient *http.Client

	// CSRFToken provides the anti-forgery token. Can be nil.
	CSRFToken TokenProvider
	// ClientName is sent as client identification. Defaults to "react-view".
	ClientName string
	// OnDone receives the response data of action calls. Can be nil.
	OnDone CompletionFunc
}

// Client provides easy access to the rows API.
type Client struct {
	transport  transport.Transport
	csrfToken  TokenProvider
	clientName string
	onDone     CompletionFunc
}

// New creates a client from the configuration
func New(config Config) (*Client, error) {
	c := &Client{
		csrfToken:  config.CSRFToken,
		clientName: config.ClientName,
		onDone:     config.OnDone,
	}
	if c.clientName == "" {
		c.clientName = core.DefaultClientName
	}

	var err error
	switch {
	case config.Transport != nil:
		c.transport = config.Transport
	case config.Resolver != nil:
		c.transport, err = transport.NewResolver(config.Resolver)
	case config.Router != nil:
		c.transport, err = transport.NewRouter(config.Router, transport.WithHeaders(c.Headers))
	case config.URL != "":
		c.transport, err = transport.NewHTTP(config.URL,
			transport.WithHeaders(c.Headers),
			transport.WithHTTPClient(config.HTTPClient))
	default:
		return nil, errors.New("client: one of Transport, Resolver, Router or URL is required")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Headers returns the headers sent with every request: the anti-forgery token, the client
// identification and the request ID of the context logger, if any.
func (c *Client) Headers(ctx context.Context) http.Header {
	h := http.Header{}
	if c.csrfToken != nil {
		h.Set(core.HeaderCSRFToken, c.csrfToken(ctx))
	}
	h.Set(core.HeaderRequestedWith, core.RequestedWithXHR)
	h.Set(core.HeaderClient, c.clientName)
	if id := logger.RequestIDFromContext(ctx); id != "" {
		h.Set(core.HeaderRequestID, id)
	}
	return h
}

// Transport returns the transport of the client
func (c *Client) Transport() transport.Transport {
	return c.transport
}

// done notifies the completion sink
func (c *Client) done(ctx context.Context, data json.RawMessage) error {
	if c.onDone == nil {
		return nil
	}
	return c.onDone(ctx, data)
}
