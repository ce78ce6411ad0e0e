// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/rowclient/core/client"
	"github.com/relabs-tech/rowclient/core/config"
	"github.com/relabs-tech/rowclient/core/logger"
)

// app holds what the subcommands share
type app struct {
	url       string
	csrfToken string
	logLevel  string

	client *client.Client
	ctx    context.Context
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "rowsctl",
		Short:         "Command line client for the rows API",
		Long:          `rowsctl reads, writes and deletes rows of tables, loads server rendered views and runs server actions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.url, "url", "", "base URL of the rows API, overrides ROWS_URL")
	root.PersistentFlags().StringVar(&a.csrfToken, "csrf-token", "", "anti-forgery token, overrides ROWS_CSRF_TOKEN")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level, overrides ROWS_LOG_LEVEL")

	root.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.insertCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.viewCmd(),
		a.actionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.URL = a.url
	}
	if flags.Changed("csrf-token") {
		cfg.CSRFToken = a.csrfToken
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.InitLogger(cfg.Level())

	ctx, rlog := logger.ContextWithLoggerIdentity(cmd.Context(), "rowsctl")
	a.ctx = ctx
	a.client, err = cfg.Client(func(ctx context.Context, data json.RawMessage) error {
		rlog.WithField("data", string(data)).Debugln("action completed")
		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot create client: %w", err)
	}
	return nil
}

// parseRow parses a JSON object argument
func parseRow(arg string) (client.Row, error) {
	row := client.Row{}
	if err := json.Unmarshal([]byte(arg), &row); err != nil {
		return nil, fmt.Errorf("invalid row '%s': %w", arg, err)
	}
	return row, nil
}
