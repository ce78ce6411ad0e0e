// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/rowclient/core/client"
	"github.com/relabs-tech/rowclient/core/query"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <table> [key=value...]",
		Short: "List the rows of a table matching the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.ParsePairs(args[1:])
			if err != nil {
				return err
			}
			rows, err := a.client.FetchRows(a.ctx, args[0], q)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				pterm.Info.Println("no rows")
				return nil
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rowsTable(rows)).Render()
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> [key=value...]",
		Short: "Show the first row of a table matching the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.ParsePairs(args[1:])
			if err != nil {
				return err
			}
			row, err := a.client.FetchOneRow(a.ctx, args[0], q)
			if err != nil {
				return err
			}
			if row == nil {
				pterm.Warning.Println("no matching row")
				return nil
			}
			return printJSON(row)
		},
	}
}

func (a *app) insertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <table> <json>",
		Short: "Insert a row into a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[1])
			if err != nil {
				return err
			}
			return reportWrite(a.client.InsertRow(a.ctx, args[0], row), "inserted")
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <id> <json>",
		Short: "Update a row of a table",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[2])
			if err != nil {
				return err
			}
			return reportWrite(a.client.UpdateRow(a.ctx, args[0], args[1], row), "updated")
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a row of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportWrite(a.client.DeleteRow(a.ctx, args[0], args[1]), "deleted")
		},
	}
}

func (a *app) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <name> [key=value...]",
		Short: "Print the HTML of a server rendered view",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.ParsePairs(args[1:])
			if err != nil {
				return err
			}
			html, err := a.client.LoadView(a.ctx, args[0], q)
			if err != nil {
				return err
			}
			pterm.Println(html)
			return nil
		},
	}
}

func (a *app) actionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action <name> [json]",
		Short: "Run a server action",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var row interface{}
			if len(args) > 1 {
				parsed, err := parseRow(args[1])
				if err != nil {
					return err
				}
				row = parsed
			}
			data, err := a.client.RunAction(a.ctx, args[0], row)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("action %s completed", args[0])
			return printJSON(data)
		},
	}
}

// reportWrite prints the outcome of a write. Failed writes become the command error.
func reportWrite(result client.WriteResult, verb string) error {
	if err := result.Err(); err != nil {
		return err
	}
	pterm.Success.Println(verb)
	return nil
}

func printJSON(v interface{}) error {
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	pterm.Println(string(j))
	return nil
}

// rowsTable lays out rows with the union of their keys as columns, "id" first
func rowsTable(rows []client.Row) [][]string {
	seen := map[string]bool{}
	var columns []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Slice(columns, func(i, j int) bool {
		if columns[i] == "id" || columns[j] == "id" {
			return columns[i] == "id"
		}
		return columns[i] < columns[j]
	})

	data := [][]string{columns}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, column := range columns {
			if value, ok := row[column]; ok && value != nil {
				line[i] = fmt.Sprint(value)
			}
		}
		data = append(data, line)
	}
	return data
}
