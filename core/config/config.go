// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package config reads the client configuration from the environment
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/rowclient/core/client"
	"github.com/relabs-tech/rowclient/core/viewcache"
)

// Config is the configuration of a client
type Config struct {
	URL           string        `env:"ROWS_URL,optional" description:"the base URL of the rows API"`
	CSRFToken     string        `env:"ROWS_CSRF_TOKEN,optional" description:"the anti-forgery token sent with every request"`
	ClientName    string        `env:"ROWS_CLIENT_NAME,optional,default=react-view" description:"the client identification sent with every request"`
	Timeout       time.Duration `env:"ROWS_TIMEOUT,optional,default=20s" description:"the timeout of a single request"`
	ViewCacheSize int           `env:"ROWS_VIEW_CACHE_SIZE,optional,default=512" description:"the maximum number of cached views, 0 means unbounded"`
	LogLevel      string        `env:"ROWS_LOG_LEVEL,optional,default=info" description:"The level used for logger, can be debug, warning, info, error"`
}

// FromEnv reads the configuration from the environment. It does not validate it.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("cannot read configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("ROWS_URL is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid ROWS_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid ROWS_URL %q: scheme must be http or https", c.URL)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid ROWS_LOG_LEVEL: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid ROWS_TIMEOUT %s", c.Timeout)
	}
	return nil
}

// Level returns the log level, or info if it cannot be parsed
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Client creates a network client for the configuration. onDone can be nil.
func (c *Config) Client(onDone client.CompletionFunc) (*client.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var token client.TokenProvider
	if c.CSRFToken != "" {
		token = client.StaticToken(c.CSRFToken)
	}
	return client.New(client.Config{
		URL:        c.URL,
		HTTPClient: &http.Client{Timeout: c.Timeout},
		CSRFToken:  token,
		ClientName: c.ClientName,
		OnDone:     onDone,
	})
}

// ViewCache creates a view cache of the configured size
func (c *Config) ViewCache(loader viewcache.Loader) (*viewcache.Cache, error) {
	return viewcache.New(loader, viewcache.WithMaxEntries(c.ViewCacheSize))
}
