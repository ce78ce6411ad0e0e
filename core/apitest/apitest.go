// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package apitest provides an in-memory fake of the rows API for tests

The fake serves tables, views and actions from memory on a mux router:

	GET    /api/{table}?<filter>   -> {"success": [rows...]}
	POST   /api/{table}            -> {"success": {"id": <new id>}}
	POST   /api/{table}/{id}       -> {"success": true}
	DELETE /api/{table}/{id}       -> {"success": true}
	GET    /view/{name}?<query>    -> text/html, or {"error": ...}
	POST   /api/action/{name}      -> {"success": true, "data": ...}

Query parameters of a table GET filter rows by equality of their string representation.
It counts every request, so tests can assert how often the API was hit.
*/
package apitest

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/rowclient/core"
	"github.com/relabs-tech/rowclient/core/logger"
)

// ViewFunc renders a view for the given query
type ViewFunc func(q url.Values) (string, error)

// ActionFunc runs an action with the posted row and returns its data
type ActionFunc func(row map[string]interface{}) (interface{}, error)

type table struct {
	nextID int
	rows   []map[string]interface{}
}

// Server is the fake API
type Server struct {
	mu        sync.Mutex
	tables    map[string]*table
	views     map[string]ViewFunc
	actions   map[string]ActionFunc
	locked    map[string]bool
	counts    map[string]int
	csrfToken string
	router    *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithCSRFToken makes the server reject requests without the given token
func WithCSRFToken(token string) Option {
	return func(s *Server) {
		s.csrfToken = token
	}
}

// New creates a new fake API
func New(opts ...Option) *Server {
	s := &Server{
		tables:  map[string]*table{},
		views:   map[string]ViewFunc{},
		actions: map[string]ActionFunc{},
		locked:  map[string]bool{},
		counts:  map[string]int{},
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handleRoutes()
	return s
}

// Router returns the router of the fake
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped with response compression, for use with a network listener
func (s *Server) Handler() http.Handler {
	return handlers.CompressHandler(s.router)
}

// AddTable creates a table with rows. Rows without "id" get one assigned.
func (s *Server) AddTable(name string, rows ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &table{nextID: 1}
	for _, row := range rows {
		t.insert(row)
	}
	s.tables[name] = t
}

// Rows returns a copy of the rows of a table
func (s *Server) Rows(name string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, copyRow(row))
	}
	return rows
}

// SetView registers a view with constant content
func (s *Server) SetView(name, html string) {
	s.SetViewFunc(name, func(url.Values) (string, error) { return html, nil })
}

// SetViewFunc registers a view renderer
func (s *Server) SetViewFunc(name string, fn ViewFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[name] = fn
}

// SetAction registers an action
func (s *Server) SetAction(name string, fn ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = fn
}

// Lock makes all requests to table answer with 401 Unauthorized
func (s *Server) Lock(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked[name] = true
}

// Unlock reverts Lock
func (s *Server) Unlock(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locked, name)
}

// Count returns how often the API was called with method and path
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method+" "+path]
}

func (s *Server) handleRoutes() {
	logger.AddRequestID(s.router)
	s.router.Use(s.countRequests, s.checkCSRF)

	s.router.HandleFunc("/api/action/{name}", s.runAction).Methods(http.MethodPost)
	s.router.HandleFunc("/api/{table}", s.listRows).Methods(http.MethodGet)
	s.router.HandleFunc("/api/{table}", s.insertRow).Methods(http.MethodPost)
	s.router.HandleFunc("/api/{table}/{id}", s.updateRow).Methods(http.MethodPost)
	s.router.HandleFunc("/api/{table}/{id}", s.deleteRow).Methods(http.MethodDelete)
	s.router.HandleFunc("/view/{name}", s.renderView).Methods(http.MethodGet)
}

func (s *Server) countRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.counts[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		h.ServeHTTP(w, r)
	})
}

func (s *Server) checkCSRF(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.csrfToken != "" && r.Header.Get(core.HeaderCSRFToken) != s.csrfToken {
			logger.FromContext(r.Context()).Debugln("rejected request without valid CSRF token", r.URL)
			writeJSON(w, http.StatusForbidden, map[string]interface{}{"error": "Invalid CSRF token"})
			return
		}
		h.ServeHTTP(w, r)
	})
}

// lookup returns the table of the request, or writes the error response
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*table, bool) {
	name := mux.Vars(r)["table"]
	if s.locked[name] {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}
	t, ok := s.tables[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Not found"})
		return nil, false
	}
	return t, true
}

func (s *Server) listRows(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	filter := r.URL.Query()
	rows := []map[string]interface{}{}
	for _, row := range t.rows {
		if matches(row, filter) {
			rows = append(rows, row)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": rows})
}

func (s *Server) insertRow(w http.ResponseWriter, r *http.Request) {
	row, err := readRow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id := t.insert(row)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": map[string]interface{}{"id": id}})
}

func (s *Server) updateRow(w http.ResponseWriter, r *http.Request) {
	patch, err := readRow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	i := t.find(mux.Vars(r)["id"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Not found"})
		return
	}
	for key, value := range patch {
		if key == "id" {
			continue
		}
		t.rows[i][key] = value
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) deleteRow(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	i := t.find(mux.Vars(r)["id"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Not found"})
		return
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	fn, ok := s.views[name]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": fmt.Sprintf("View %s not found", name)})
		return
	}
	html, err := fn(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, html)
}

func (s *Server) runAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	row, err := readRow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	s.mu.Lock()
	fn, ok := s.actions[name]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": fmt.Sprintf("Action %s not found", name)})
		return
	}
	data, err := fn(row)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	res := map[string]interface{}{"success": true}
	if data != nil {
		res["data"] = data
	}
	writeJSON(w, http.StatusOK, res)
}

func (t *table) insert(row map[string]interface{}) interface{} {
	row = copyRow(row)
	if _, ok := row["id"]; !ok {
		row["id"] = t.nextID
		t.nextID++
	}
	t.rows = append(t.rows, row)
	return row["id"]
}

func (t *table) find(id string) int {
	for i, row := range t.rows {
		if fmt.Sprint(row["id"]) == id {
			return i
		}
	}
	return -1
}

func matches(row map[string]interface{}, filter url.Values) bool {
	for key, values := range filter {
		value, ok := row[key]
		if !ok || len(values) == 0 {
			return false
		}
		if fmt.Sprint(value) != values[len(values)-1] {
			return false
		}
	}
	return true
}

func copyRow(row map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(row))
	for key, value := range row {
		c[key] = value
	}
	return c
}

func readRow(r *http.Request) (map[string]interface{}, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	row := map[string]interface{}{}
	if len(body) == 0 {
		return row, nil
	}
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}
	return row, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	j, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(j)
}

// Tables returns the names of all tables in sorted order
func (s *Server) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
