package test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"

	"github.com/relabs-tech/rowclient/core/bindings"
	"github.com/relabs-tech/rowclient/core/client"
	"github.com/relabs-tech/rowclient/core/components"
	"github.com/relabs-tech/rowclient/core/envelope"
	"github.com/relabs-tech/rowclient/core/logger"
	"github.com/relabs-tech/rowclient/core/query"
)

type book struct {
	ID     int    `json:"id,omitempty"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, &IntegrationTestSuite{})
}

func (s *IntegrationTestSuite) TestRows() {
	ctx := context.Background()

	books, err := client.FetchRowsInto[book](ctx, s.client, "books", query.Query{"author": "Tolkien", "year": nil})
	s.Require().NoError(err)
	s.Require().Len(books, 2)
	s.Equal(book{ID: 1, Title: "The Hobbit", Author: "Tolkien", Year: 1937}, books[0])

	result := s.client.InsertRow(ctx, "books", book{Title: "Emma", Author: "Austen", Year: 1815})
	s.Require().True(result.OK, result.Message)

	emma, err := client.FetchOneRowInto[book](ctx, s.client, "books", query.Query{"author": "Austen"})
	s.Require().NoError(err)
	s.Require().NotNil(emma)

	result = s.client.UpdateRow(ctx, "books", emma.ID, client.Row{"year": 1816})
	s.Require().True(result.OK, result.Message)
	row, err := s.client.FetchOneRow(ctx, "books", query.Query{"id": emma.ID})
	s.Require().NoError(err)
	var updated book
	s.Require().NoError(row.Decode(&updated))
	s.Equal(1816, updated.Year)

	s.Require().NoError(s.client.DeleteRow(ctx, "books", emma.ID).Err())
	row, err = s.client.FetchOneRow(ctx, "books", query.Query{"author": "Austen"})
	s.Require().NoError(err)
	s.Nil(row)

	_, err = s.client.FetchRows(ctx, "films", nil)
	var apiErr *envelope.Error
	s.Require().True(errors.As(err, &apiErr))
	s.Equal("Not found", apiErr.Message)
	s.Equal(404, apiErr.StatusCode)
}

func (s *IntegrationTestSuite) TestHeaders() {
	ctx, _ := logger.ContextWithRequestID(context.Background(), "integration-request")
	_, err := s.client.FetchRows(ctx, "books", nil)
	s.Require().NoError(err)

	h := s.lastHeaders()
	s.Equal(csrfToken, h.Get("X-CSRF-Token"))
	s.Equal("XMLHttpRequest", h.Get("X-Requested-With"))
	s.Equal("integration", h.Get("X-Saltcorn-Client"))
	s.Equal("integration-request", h.Get("X-Request-ID"))
}

func (s *IntegrationTestSuite) TestWritesNeverFail() {
	s.fake.Lock("books")
	defer s.fake.Unlock("books")

	ctx := context.Background()
	s.Equal(client.WriteResult{Message: "Unauthorized"}, s.client.InsertRow(ctx, "books", client.Row{}))
	s.Equal(client.WriteResult{Message: "Not found"}, s.client.DeleteRow(ctx, "films", 1))

	offline, err := client.New(client.Config{URL: "http://127.0.0.1:1"})
	s.Require().NoError(err)
	s.Equal(client.WriteResult{Message: "Unknown error"}, offline.UpdateRow(ctx, "books", 1, client.Row{}))
}

func (s *IntegrationTestSuite) TestViewCache() {
	var renders atomic.Int64
	gate := make(chan struct{})
	s.fake.SetViewFunc("shelf", func(q url.Values) (string, error) {
		renders.Inc()
		<-gate
		return fmt.Sprintf("<ul data-author=%q></ul>", q.Get("author")), nil
	})

	ctx := context.Background()
	q := query.Query{"author": "Tolkien"}
	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			html, err := s.cache.Get(ctx, "shelf", q)
			s.NoError(err)
			results[i] = html
		}(i)
	}
	s.Eventually(func() bool { return renders.Load() == 1 }, time.Second, time.Millisecond)
	close(gate)
	wg.Wait()

	for _, html := range results {
		s.Equal(`<ul data-author="Tolkien"></ul>`, html)
	}
	s.Equal(1, s.fake.Count("GET", "/view/shelf"))

	_, err := s.cache.Get(ctx, "shelf", q)
	s.Require().NoError(err)
	s.Equal(1, s.fake.Count("GET", "/view/shelf"))

	_, err = s.cache.Get(ctx, "cellar", nil)
	s.EqualError(err, "View cellar not found")
	_, err = s.cache.Get(ctx, "cellar", nil)
	s.Error(err)
	s.Equal(2, s.fake.Count("GET", "/view/cellar"))
}

func (s *IntegrationTestSuite) TestBindings() {
	ctx := context.Background()

	tolkien := bindings.NewRows[book](s.client, "books", query.Query{"author": "Tolkien"})
	defer tolkien.Close()
	<-tolkien.Effect(ctx, "Tolkien")
	state := tolkien.State()
	s.False(state.IsLoading)
	s.Len(state.Rows, 2)

	dune := bindings.NewRow[book](s.client, "books", query.Query{"title": "Dune"})
	defer dune.Close()
	<-dune.Effect(ctx)
	s.Require().NotNil(dune.State().Row)
	s.Equal(1965, dune.State().Row.Year)
}

func (s *IntegrationTestSuite) TestComponents() {
	ctx := context.Background()
	s.fake.SetView("greeting", "<b>Hello</b>")
	s.fake.SetAction("archive", func(row map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"archived": row["id"]}, nil
	})

	view := components.NewView(s.cache, "greeting", nil)
	s.Require().NoError(view.Mount(ctx))
	s.Equal("<div><b>Hello</b></div>", string(view.Render()))
	view.Unmount()

	action := components.NewAction(s.client, "archive", client.Row{"id": 2})
	action.Click(ctx)
	action.Wait()
	completed := s.completions()
	s.Require().Len(completed, 1)
	s.JSONEq(`{"archived":2}`, string(completed[0]))
}
