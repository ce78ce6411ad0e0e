// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package client

import (
	"github.com/mitchellh/mapstructure"

	"github.com/relabs-tech/rowclient/core/envelope"
)

// Row is a schema-less record of a named table
type Row map[string]interface{}

// Decode decodes the row into out, which must be a pointer to a struct or map.
// Struct fields are matched by their json tags.
func (r Row) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]interface{}(r))
}

// WriteResult is the outcome of a write operation. Either OK is true, or Message
// describes the failure.
type WriteResult struct {
	OK      bool
	Message string
}

// Err returns nil for a successful write, otherwise an error with the message
func (w WriteResult) Err() error {
	if w.OK {
		return nil
	}
	if w.Message == envelope.UnknownMessage {
		return envelope.ErrUnknown
	}
	return &envelope.Error{Message: w.Message}
}

// String returns "true" or the message, the way callers used to print results
func (w WriteResult) String() string {
	if w.OK {
		return "true"
	}
	return w.Message
}

func succeeded() WriteResult {
	return WriteResult{OK: true}
}

func failed(message string) WriteResult {
	return WriteResult{Message: message}
}
