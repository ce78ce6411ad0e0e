package main

import (
	"net/http/httptest"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rowclient/core/apitest"
	"github.com/relabs-tech/rowclient/core/client"
)

func run(t *testing.T, url string, args ...string) error {
	pterm.DisableOutput()
	root := newRootCmd()
	root.SetArgs(append([]string{"--url", url, "--log-level", "error"}, args...))
	return root.Execute()
}

func TestCommands(t *testing.T) {
	fake := apitest.New()
	fake.AddTable("books", map[string]interface{}{"title": "Dune", "author": "Herbert"})
	fake.SetView("shelf", "<ul></ul>")
	fake.SetAction("count", func(row map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"count": len(fake.Rows("books"))}, nil
	})
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	require.NoError(t, run(t, srv.URL, "list", "books", "author=Herbert"))
	require.NoError(t, run(t, srv.URL, "get", "books", "title=Dune"))
	require.NoError(t, run(t, srv.URL, "get", "books", "title=Emma"))

	require.NoError(t, run(t, srv.URL, "insert", "books", `{"title":"Emma","author":"Austen"}`))
	require.Len(t, fake.Rows("books"), 2)

	require.NoError(t, run(t, srv.URL, "update", "books", "2", `{"title":"Persuasion"}`))
	assert.Equal(t, "Persuasion", fake.Rows("books")[1]["title"])

	require.NoError(t, run(t, srv.URL, "delete", "books", "2"))
	assert.Len(t, fake.Rows("books"), 1)

	require.NoError(t, run(t, srv.URL, "view", "shelf"))
	require.NoError(t, run(t, srv.URL, "action", "count"))
	require.NoError(t, run(t, srv.URL, "action", "count", `{"dry":true}`))
	assert.Equal(t, 2, fake.Count("POST", "/api/action/count"))
}

func TestCommands_Errors(t *testing.T) {
	fake := apitest.New()
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	assert.EqualError(t, run(t, srv.URL, "list", "books"), "Not found")
	assert.EqualError(t, run(t, srv.URL, "delete", "books", "1"), "Not found")
	assert.Error(t, run(t, srv.URL, "insert", "books", "not json"))
	assert.Error(t, run(t, srv.URL, "list", "books", "nokey"))
	assert.Error(t, run(t, srv.URL, "view", "missing"))
	assert.Error(t, run(t, "", "list", "books"))
	assert.Error(t, run(t, srv.URL, "update", "books"))
}

func TestRowsTable(t *testing.T) {
	data := rowsTable([]client.Row{
		{"title": "Dune", "id": float64(1)},
		{"id": float64(2), "author": "Austen", "year": nil},
	})
	assert.Equal(t, [][]string{
		{"id", "author", "title", "year"},
		{"1", "", "Dune", ""},
		{"2", "Austen", "", ""},
	}, data)
}
