// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Operation represents a client operation against the rows API, one of FetchRows, FetchOneRow,
// InsertRow, UpdateRow, DeleteRow, LoadView, RunAction
type Operation string

// all supported client operations
const (
	OperationFetchRows   Operation = "fetch_rows"
	OperationFetchOneRow Operation = "fetch_one_row"
	OperationInsertRow   Operation = "insert_row"
	OperationUpdateRow   Operation = "update_row"
	OperationDeleteRow   Operation = "delete_row"
	OperationLoadView    Operation = "load_view"
	OperationRunAction   Operation = "run_action"
)

// IsWrite returns true for the operations that report failures as a result value
// instead of an error
func (o Operation) IsWrite() bool {
	return o == OperationInsertRow || o == OperationUpdateRow || o == OperationDeleteRow
}

// UnmarshalJSON is a custom JSON unmarshaller
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Operation(s)
	switch *o {
	case OperationFetchRows, OperationFetchOneRow, OperationInsertRow, OperationUpdateRow,
		OperationDeleteRow, OperationLoadView, OperationRunAction:
		return nil
	default:
		return fmt.Errorf("%s is not valid Operation", s)
	}
}

// Header names sent with every request
const (
	HeaderCSRFToken     = "X-CSRF-Token"
	HeaderRequestedWith = "X-Requested-With"
	HeaderClient        = "X-Saltcorn-Client"
	HeaderRequestID     = "X-Request-ID"
)

// RequestedWithXHR is the value of the X-Requested-With header
const RequestedWithXHR = "XMLHttpRequest"

// DefaultClientName is the default value of the client identification header
const DefaultClientName = "react-view"
