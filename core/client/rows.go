// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/rowclient/core"
	"github.com/relabs-tech/rowclient/core/envelope"
	"github.com/relabs-tech/rowclient/core/logger"
	"github.com/relabs-tech/rowclient/core/query"
	"github.com/relabs-tech/rowclient/core/transport"
)

// TablePath returns the path of a table
func TablePath(table string) string {
	return "/api/" + url.PathEscape(table)
}

// ItemPath returns the path of a single row of a table
func ItemPath(table string, id interface{}) string {
	return TablePath(table) + "/" + url.PathEscape(fmt.Sprint(id))
}

// ViewPath returns the path of a view
func ViewPath(name string) string {
	return "/view/" + url.PathEscape(name)
}

// ActionPath returns the path of an action
func ActionPath(name string) string {
	return "/api/action/" + url.PathEscape(name)
}

func operationLogger(ctx context.Context, op core.Operation, method, path string) *logrus.Entry {
	return logger.FromContext(ctx).WithFields(logrus.Fields{
		"operation": op,
		"method":    method,
		"path":      path,
		"write":     op.IsWrite(),
	})
}

// fetch gets the success payload of a table query
func (c *Client) fetch(ctx context.Context, op core.Operation, table string, q query.Query) (json.RawMessage, error) {
	path := TablePath(table)
	rlog := operationLogger(ctx, op, http.MethodGet, path)
	res, err := c.transport.Get(ctx, path, q)
	if err != nil {
		rlog.WithError(err).Debugln("request failed")
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	rlog.WithField("status", res.StatusCode).Debugln("response")
	e, err := envelope.Decode(res.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: invalid response with status %d: %w", path, res.StatusCode, err)
	}
	if e.Succeeded() {
		return e.Success, nil
	}
	return nil, e.AsError(res.StatusCode)
}

// FetchRows gets all rows of table matching the query.
//
// The operation corresponds to a GET request.
//
// Returns the server message as *envelope.Error if the server reports an error,
// and envelope.ErrUnknown if the response carries neither rows nor an error.
func (c *Client) FetchRows(ctx context.Context, table string, q query.Query) ([]Row, error) {
	return FetchRowsInto[Row](ctx, c, table, q)
}

// FetchRowsInto gets all rows of table matching the query, decoded into T
func FetchRowsInto[T any](ctx context.Context, c *Client, table string, q query.Query) ([]T, error) {
	raw, err := c.fetch(ctx, core.OperationFetchRows, table, q)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("GET %s: %w", TablePath(table), err)
	}
	return rows, nil
}

// FetchOneRow gets the first row of table matching the query. It returns nil
// if no row matches.
//
// The operation corresponds to a GET request.
func (c *Client) FetchOneRow(ctx context.Context, table string, q query.Query) (Row, error) {
	row, err := FetchOneRowInto[Row](ctx, c, table, q)
	if err != nil || row == nil {
		return nil, err
	}
	return *row, nil
}

// FetchOneRowInto gets the first row of table matching the query, decoded into T.
// It returns nil if no row matches.
func FetchOneRowInto[T any](ctx context.Context, c *Client, table string, q query.Query) (*T, error) {
	raw, err := c.fetch(ctx, core.OperationFetchOneRow, table, q)
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("GET %s: %w", TablePath(table), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var row T
	if err := json.Unmarshal(rows[0], &row); err != nil {
		return nil, fmt.Errorf("GET %s: %w", TablePath(table), err)
	}
	return &row, nil
}

// write sends a modifying request and converts every outcome into a WriteResult
func (c *Client) write(ctx context.Context, op core.Operation, method, path string, body interface{}) WriteResult {
	rlog := operationLogger(ctx, op, method, path)

	var (
		res *transport.Response
		err error
	)
	switch method {
	case http.MethodDelete:
		res, err = c.transport.Delete(ctx, path, nil)
	default:
		res, err = c.transport.Post(ctx, path, nil, body)
	}
	if err != nil {
		rlog.WithError(err).Warnln("request failed")
		return failed(envelope.UnknownMessage)
	}
	rlog.WithField("status", res.StatusCode).Debugln("response")
	if res.StatusCode == http.StatusUnauthorized {
		return failed(envelope.UnauthorizedMessage)
	}
	e, err := envelope.Decode(res.Body)
	if err != nil {
		rlog.WithError(err).Warnln("invalid response")
		return failed(envelope.UnknownMessage)
	}
	if e.Succeeded() {
		return succeeded()
	}
	// a string error is reported as is, also when empty
	if s, ok := e.ErrorString(); ok {
		return failed(s)
	}
	return failed(envelope.UnknownMessage)
}

// InsertRow inserts row into table.
//
// The operation corresponds to a POST request. It never fails with an error, instead the
// result carries the server message, or "Unknown error" if the request did not complete.
//
// row can be any JSON marshallable value, also a []byte.
func (c *Client) InsertRow(ctx context.Context, table string, row interface{}) WriteResult {
	return c.write(ctx, core.OperationInsertRow, http.MethodPost, TablePath(table), row)
}

// UpdateRow updates the row with id in table.
//
// The operation corresponds to a POST request. It never fails with an error, see InsertRow.
func (c *Client) UpdateRow(ctx context.Context, table string, id interface{}, row interface{}) WriteResult {
	return c.write(ctx, core.OperationUpdateRow, http.MethodPost, ItemPath(table, id), row)
}

// DeleteRow deletes the row with id from table.
//
// The operation corresponds to a DELETE request. It never fails with an error, see InsertRow.
func (c *Client) DeleteRow(ctx context.Context, table string, id interface{}) WriteResult {
	return c.write(ctx, core.OperationDeleteRow, http.MethodDelete, ItemPath(table, id), nil)
}

// LoadView loads the HTML of a server rendered view.
//
// The operation corresponds to a GET request. Status 200 yields the body as HTML. Responses
// of a navigation resolver are envelopes and yield their success string or their error.
func (c *Client) LoadView(ctx context.Context, name string, q query.Query) (string, error) {
	path := ViewPath(name)
	rlog := operationLogger(ctx, core.OperationLoadView, http.MethodGet, path)
	res, err := c.transport.Get(ctx, path, q)
	if err != nil {
		rlog.WithError(err).Debugln("request failed")
		return "", fmt.Errorf("GET %s: %w", path, err)
	}
	rlog.WithField("status", res.StatusCode).Debugln("response")

	if res.StatusCode == http.StatusOK {
		if res.Resolved {
			if e, err := envelope.Decode(res.Body); err == nil {
				if e.HasError() {
					return "", e.AsError(res.StatusCode)
				}
				var html string
				if e.Succeeded() && json.Unmarshal(e.Success, &html) == nil {
					return html, nil
				}
			}
		}
		return string(res.Body), nil
	}

	e, err := envelope.Decode(res.Body)
	if err != nil {
		return "", envelope.ErrUnknown
	}
	return "", e.AsError(res.StatusCode)
}

// RunAction runs the named server action with row as payload. A nil row is sent as
// an empty object.
//
// The operation corresponds to a POST request. The configured completion function is
// called exactly once, with the response data or an empty object, before RunAction
// returns. On success RunAction returns the response data, or the success payload
// if there is no data.
func (c *Client) RunAction(ctx context.Context, name string, row interface{}) (json.RawMessage, error) {
	if row == nil {
		row = map[string]interface{}{}
	}
	path := ActionPath(name)
	rlog := operationLogger(ctx, core.OperationRunAction, http.MethodPost, path)

	res, err := c.transport.Post(ctx, path, nil, row)
	if err != nil {
		rlog.WithError(err).Debugln("request failed")
		payload := envelope.EmptyObject()
		var apiErr *envelope.Error
		if errors.As(err, &apiErr) && envelope.Truthy(apiErr.Data) {
			payload = apiErr.Data
		}
		if derr := c.done(ctx, payload); derr != nil {
			rlog.WithError(derr).Errorln("completion failed")
		}
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	rlog.WithField("status", res.StatusCode).Debugln("response")

	e, err := envelope.Decode(res.Body)
	if err != nil {
		if derr := c.done(ctx, envelope.EmptyObject()); derr != nil {
			rlog.WithError(derr).Errorln("completion failed")
		}
		return nil, fmt.Errorf("POST %s: invalid response with status %d: %w", path, res.StatusCode, err)
	}
	if err := c.done(ctx, e.DataOrEmpty()); err != nil {
		return nil, fmt.Errorf("action %s: completion: %w", name, err)
	}
	if e.Succeeded() {
		return e.Payload(), nil
	}
	return nil, e.AsError(res.StatusCode)
}
