// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package bindings

import (
	"context"
	"sync"

	"github.com/relabs-tech/rowclient/core/client"
	"github.com/relabs-tech/rowclient/core/envelope"
	"github.com/relabs-tech/rowclient/core/logger"
	"github.com/relabs-tech/rowclient/core/query"
)

// RowsState is the state of a Rows binding
type RowsState[T any] struct {
	Rows      []T
	Error     string
	IsLoading bool
}

// RowState is the state of a Row binding. Row is nil if no row matched.
type RowState[T any] struct {
	Row       *T
	Error     string
	IsLoading bool
}

// source holds the table and query of a binding, which can change between effects
type source struct {
	mu    sync.Mutex
	table string
	query query.Query
}

func (s *source) get() (string, query.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table, s.query
}

func (s *source) set(q query.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

func message(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return envelope.UnknownMessage
}

// Rows binds the rows of a table matching a query
type Rows[T any] struct {
	client *client.Client
	source source
	b      binding[RowsState[T]]
}

// NewRows creates a binding for the rows of table matching q. It starts in loading state.
func NewRows[T any](c *client.Client, table string, q query.Query) *Rows[T] {
	r := &Rows[T]{client: c, source: source{table: table, query: q}}
	r.b.state.IsLoading = true
	return r
}

// SetQuery sets the query for the next effect. It does not trigger a fetch by itself.
func (r *Rows[T]) SetQuery(q query.Query) {
	r.source.set(q)
}

// Effect fetches the rows if deps differ from the previous call, or on the first call.
// The returned channel is closed when the fetch has settled, or immediately if nothing
// was fetched.
func (r *Rows[T]) Effect(ctx context.Context, deps ...interface{}) <-chan struct{} {
	return r.b.effect(ctx, deps,
		func(s *RowsState[T]) { s.IsLoading = true },
		func(ctx context.Context) func(*RowsState[T]) {
			table, q := r.source.get()
			rows, err := client.FetchRowsInto[T](ctx, r.client, table, q)
			if err != nil {
				logger.FromContext(ctx).WithError(err).WithField("table", table).Debugln("fetching rows failed")
			}
			return func(s *RowsState[T]) {
				s.IsLoading = false
				if err != nil {
					s.Error = message(err)
					s.Rows = nil
					return
				}
				s.Rows = rows
				s.Error = ""
			}
		})
}

// State returns the current state
func (r *Rows[T]) State() RowsState[T] {
	return r.b.get()
}

// Subscribe registers fn to be called after every state change. It returns a function
// which removes the subscription.
func (r *Rows[T]) Subscribe(fn func(RowsState[T])) func() {
	return r.b.subscribe(fn)
}

// Close cancels a pending fetch and stops all state updates
func (r *Rows[T]) Close() {
	r.b.close()
}

// Row binds the first row of a table matching a query
type Row[T any] struct {
	client *client.Client
	source source
	b      binding[RowState[T]]
}

// NewRow creates a binding for the first row of table matching q. It starts in loading state.
func NewRow[T any](c *client.Client, table string, q query.Query) *Row[T] {
	r := &Row[T]{client: c, source: source{table: table, query: q}}
	r.b.state.IsLoading = true
	return r
}

// SetQuery sets the query for the next effect
func (r *Row[T]) SetQuery(q query.Query) {
	r.source.set(q)
}

// Effect fetches the row if deps differ from the previous call, see Rows.Effect
func (r *Row[T]) Effect(ctx context.Context, deps ...interface{}) <-chan struct{} {
	return r.b.effect(ctx, deps,
		func(s *RowState[T]) { s.IsLoading = true },
		func(ctx context.Context) func(*RowState[T]) {
			table, q := r.source.get()
			row, err := client.FetchOneRowInto[T](ctx, r.client, table, q)
			if err != nil {
				logger.FromContext(ctx).WithError(err).WithField("table", table).Debugln("fetching row failed")
			}
			return func(s *RowState[T]) {
				s.IsLoading = false
				if err != nil {
					s.Error = message(err)
					s.Row = nil
					return
				}
				s.Row = row
				s.Error = ""
			}
		})
}

// State returns the current state
func (r *Row[T]) State() RowState[T] {
	return r.b.get()
}

// Subscribe registers fn to be called after every state change
func (r *Row[T]) Subscribe(fn func(RowState[T])) func() {
	return r.b.subscribe(fn)
}

// Close cancels a pending fetch and stops all state updates
func (r *Row[T]) Close() {
	r.b.close()
}
