package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"

	"github.com/relabs-tech/rowclient/core/apitest"
	"github.com/relabs-tech/rowclient/core/client"
	"github.com/relabs-tech/rowclient/core/config"
	"github.com/relabs-tech/rowclient/core/viewcache"
)

const csrfToken = "integration-token"

// IntegrationTestSuite runs a network client against the fake API served on a local listener
type IntegrationTestSuite struct {
	suite.Suite
	fake   *apitest.Server
	srv    *httptest.Server
	client *client.Client
	cache  *viewcache.Cache

	mu        sync.Mutex
	completed []json.RawMessage
	headers   http.Header
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.fake = apitest.New(apitest.WithCSRFToken(csrfToken))
	s.fake.Router().Use(s.captureHeaders)
	s.srv = httptest.NewServer(s.fake.Handler())

	cfg := &config.Config{
		URL:           s.srv.URL,
		CSRFToken:     csrfToken,
		ClientName:    "integration",
		Timeout:       5 * time.Second,
		ViewCacheSize: 16,
		LogLevel:      "debug",
	}
	var err error
	s.client, err = cfg.Client(s.onDone)
	s.Require().NoError(err)
	s.cache, err = cfg.ViewCache(s.client)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.srv != nil {
		s.srv.Close()
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	s.fake.AddTable("books",
		map[string]interface{}{"title": "The Hobbit", "author": "Tolkien", "year": 1937},
		map[string]interface{}{"title": "Dune", "author": "Herbert", "year": 1965},
		map[string]interface{}{"title": "The Silmarillion", "author": "Tolkien", "year": 1977},
	)
	s.cache.Purge()
	s.mu.Lock()
	s.completed = nil
	s.mu.Unlock()
}

func (s *IntegrationTestSuite) onDone(ctx context.Context, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, data)
	return nil
}

func (s *IntegrationTestSuite) completions() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.completed...)
}

func (s *IntegrationTestSuite) captureHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.headers = r.Header.Clone()
		s.mu.Unlock()
		h.ServeHTTP(w, r)
	})
}

func (s *IntegrationTestSuite) lastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers
}
