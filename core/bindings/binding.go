// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package bindings provides view state bindings on top of the client

A binding holds the state of a query, that is its data, an error message and whether it is
loading. Effect recomputes the state when the dependency list changes, similar to an effect
hook in a UI framework:

	books := bindings.NewRows[Book](c, "books", query.Query{"author": author})
	defer books.Close()
	<-books.Effect(ctx, author)
	state := books.State()

Only the latest effect publishes its result. After Close nothing is published anymore.
*/
package bindings

import (
	"context"
	"reflect"
	"sync"
)

// binding is the state machine shared by Rows and Row
type binding[S any] struct {
	mu         sync.Mutex
	state      S
	deps       []interface{}
	started    bool
	generation uint64
	closed     bool
	cancel     context.CancelFunc
	listeners  map[int]func(S)
	nextID     int
}

func closedChannel() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func sameDeps(a, b []interface{}) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// effect starts load if deps changed. begin marks the state as loading, load fetches and
// returns the update to apply to the state.
func (b *binding[S]) effect(ctx context.Context, deps []interface{}, begin func(*S), load func(context.Context) func(*S)) <-chan struct{} {
	b.mu.Lock()
	if b.closed || (b.started && sameDeps(b.deps, deps)) {
		b.mu.Unlock()
		return closedChannel()
	}
	b.started = true
	b.deps = append([]interface{}(nil), deps...)
	b.generation++
	generation := b.generation
	if b.cancel != nil {
		b.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	begin(&b.state)
	state, listeners := b.snapshot()
	b.mu.Unlock()
	notify(listeners, state)

	settled := make(chan struct{})
	go func() {
		defer close(settled)
		defer cancel()
		update := load(ctx)

		b.mu.Lock()
		if b.closed || generation != b.generation {
			b.mu.Unlock()
			return
		}
		update(&b.state)
		state, listeners := b.snapshot()
		b.mu.Unlock()
		notify(listeners, state)
	}()
	return settled
}

// snapshot must be called with the lock held
func (b *binding[S]) snapshot() (S, []func(S)) {
	listeners := make([]func(S), 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	return b.state, listeners
}

func notify[S any](listeners []func(S), state S) {
	for _, fn := range listeners {
		fn(state)
	}
}

func (b *binding[S]) get() S {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *binding[S]) subscribe(fn func(S)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = map[int]func(S){}
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

func (b *binding[S]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.listeners = nil
}
