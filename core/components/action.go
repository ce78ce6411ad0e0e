// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package components provides the two presentational building blocks of a page: a button
running a server action, and a server rendered view.
*/
package components

import (
	"context"
	"html/template"
	"sync"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/rowclient/core/logger"
)

// ActionRunner runs server actions. *client.Client is an ActionRunner.
type ActionRunner interface {
	RunAction(ctx context.Context, name string, row interface{}) (json.RawMessage, error)
}

const actionButton = template.HTML(`<button class="btn btn-primary">Run Action</button>`)

// Action runs a named server action with a fixed row on click.
//
// The action does not reflect success or failure, the completion function of the
// client does.
type Action struct {
	runner ActionRunner
	name   string
	row    interface{}
	wg     sync.WaitGroup
}

// NewAction creates an action component. row can be nil.
func NewAction(runner ActionRunner, name string, row interface{}) *Action {
	return &Action{runner: runner, name: name, row: row}
}

// Name returns the name of the action
func (a *Action) Name() string {
	return a.name
}

// Click runs the action in the background. The run is not canceled when ctx is.
func (a *Action) Click(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if _, err := a.runner.RunAction(ctx, a.name, a.row); err != nil {
			logger.FromContext(ctx).WithError(err).WithField("action", a.name).Warnln("action failed")
		}
	}()
}

// Wait blocks until all clicks have settled
func (a *Action) Wait() {
	a.wg.Wait()
}

// Render returns the button markup
func (a *Action) Render() template.HTML {
	return actionButton
}
