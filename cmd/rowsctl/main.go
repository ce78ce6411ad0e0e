// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// rowsctl is a command line client for the rows API.
//
// It reads its configuration from the environment (ROWS_URL, ROWS_CSRF_TOKEN, ROWS_CLIENT_NAME,
// ROWS_TIMEOUT, ROWS_LOG_LEVEL). The flags --url, --csrf-token and --log-level override it.
//
//	rowsctl list books author=Tolkien
//	rowsctl insert books '{"title":"Dune"}'
//	rowsctl view book_list page=2
package main

import (
	"os"

	"github.com/pterm/pterm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
