// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package components

import (
	"bytes"
	"context"
	"html/template"
	"sync"

	"github.com/relabs-tech/rowclient/core/envelope"
	"github.com/relabs-tech/rowclient/core/logger"
	"github.com/relabs-tech/rowclient/core/query"
	"github.com/relabs-tech/rowclient/core/viewcache"
)

var viewTemplate = template.Must(template.New("view").Parse(
	`{{if .Error}}<div>Error: {{.Error}}</div>{{else}}<div>{{.Content}}</div>{{end}}`))

// View renders a server rendered view, loaded through a view cache
type View struct {
	cache *viewcache.Cache

	mu         sync.Mutex
	name       string
	query      query.Query
	content    string
	err        string
	mounted    bool
	unmounted  bool
	generation uint64
}

// NewView creates a view component for the view name with query q
func NewView(cache *viewcache.Cache, name string, q query.Query) *View {
	return &View{cache: cache, name: name, query: q}
}

// Mount loads the view. It returns the load error, which is also rendered.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	v.mounted = true
	v.mu.Unlock()
	return v.load(ctx)
}

// Update changes name and query. The view is reloaded if either changed.
func (v *View) Update(ctx context.Context, name string, q query.Query) error {
	v.mu.Lock()
	changed := name != v.name || q.CacheKey(name) != v.query.CacheKey(v.name)
	v.name = name
	v.query = q
	mounted := v.mounted
	v.mu.Unlock()
	if !changed || !mounted {
		return nil
	}
	return v.load(ctx)
}

// Unmount stops all further state updates of the view
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.unmounted = true
}

func (v *View) load(ctx context.Context) error {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return nil
	}
	v.generation++
	generation := v.generation
	name, q := v.name, v.query
	v.err = ""
	v.mu.Unlock()

	html, err := v.cache.Get(ctx, name, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted || generation != v.generation {
		return err
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("view", name).Errorln("error loading content")
		v.err = err.Error()
		if v.err == "" {
			v.err = envelope.UnknownMessage
		}
		return err
	}
	v.content = html
	return nil
}

// Content returns the HTML of the last successful load
func (v *View) Content() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.content
}

// Err returns the error message of the last load, or "" if it succeeded
func (v *View) Err() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Render returns the markup of the view: the error message if the last load failed,
// otherwise the view HTML unescaped.
func (v *View) Render() template.HTML {
	v.mu.Lock()
	data := struct {
		Error   string
		Content template.HTML
	}{v.err, template.HTML(v.content)}
	v.mu.Unlock()

	var buf bytes.Buffer
	if err := viewTemplate.Execute(&buf, data); err != nil {
		return template.HTML("<div>Error: " + template.HTMLEscapeString(err.Error()) + "</div>")
	}
	return template.HTML(buf.String())
}
