package config

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rowclient/core/apitest"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ROWS_URL", "http://localhost:3000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		URL:           "http://localhost:3000",
		ClientName:    "react-view",
		Timeout:       20 * time.Second,
		ViewCacheSize: 512,
		LogLevel:      "info",
	}, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ROWS_URL", "https://rows.example.com")
	t.Setenv("ROWS_CSRF_TOKEN", "t0k")
	t.Setenv("ROWS_CLIENT_NAME", "rowsctl")
	t.Setenv("ROWS_TIMEOUT", "5s")
	t.Setenv("ROWS_VIEW_CACHE_SIZE", "0")
	t.Setenv("ROWS_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		URL:        "https://rows.example.com",
		CSRFToken:  "t0k",
		ClientName: "rowsctl",
		Timeout:    5 * time.Second,
		LogLevel:   "debug",
	}, cfg)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		cfg   Config
		valid bool
	}{
		{name: "valid", cfg: Config{URL: "http://localhost", LogLevel: "warning"}, valid: true},
		{name: "missing url", cfg: Config{LogLevel: "info"}},
		{name: "relative url", cfg: Config{URL: "localhost:3000", LogLevel: "info"}},
		{name: "bad level", cfg: Config{URL: "http://localhost", LogLevel: "loud"}},
		{name: "negative timeout", cfg: Config{URL: "http://localhost", LogLevel: "info", Timeout: -time.Second}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	assert.Equal(t, logrus.InfoLevel, (&Config{LogLevel: "loud"}).Level())
}

func TestClient(t *testing.T) {
	fake := apitest.New(apitest.WithCSRFToken("t0k"))
	fake.AddTable("books", map[string]interface{}{"title": "Dune"})
	fake.SetView("shelf", "<ul></ul>")
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	cfg := &Config{URL: srv.URL, CSRFToken: "t0k", ClientName: "test", Timeout: time.Second, ViewCacheSize: 1, LogLevel: "info"}
	c, err := cfg.Client(nil)
	require.NoError(t, err)

	rows, err := c.FetchRows(context.Background(), "books", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	cache, err := cfg.ViewCache(c)
	require.NoError(t, err)
	html, err := cache.Get(context.Background(), "shelf", nil)
	require.NoError(t, err)
	assert.Equal(t, "<ul></ul>", html)

	_, err = (&Config{}).Client(nil)
	assert.Error(t, err)
}
