// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package envelope decodes the response envelope of the rows API.

Every API call answers with either

	{"success": <payload>}

or

	{"error": "<message>"}

Action calls may add a "data" member. A "success" member only counts when it is truthy,
that is present and not null, false, 0 or the empty string. An empty array or object is
truthy. A response without a truthy success and without an error is an unknown error.
*/
package envelope

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/goccy/go-json"
)

// UnknownMessage is the message used when the server did not provide one
const UnknownMessage = "Unknown error"

// UnauthorizedMessage is the message write operations report for HTTP 401
const UnauthorizedMessage = "Unauthorized"

// ErrUnknown is returned when a response carries neither a success payload nor an error
var ErrUnknown = errors.New(UnknownMessage)

// Error is a failure reported by the server
type Error struct {
	Message    string
	StatusCode int
	// Data is the "data" member of the failed response, if any
	Data json.RawMessage
}

func (e *Error) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrUnknown) hold for server errors without message
func (e *Error) Is(target error) bool {
	return target == ErrUnknown && e.Message == UnknownMessage
}

// Envelope is the raw response envelope
type Envelope struct {
	Success json.RawMessage `json:"success,omitempty"`
	Err     json.RawMessage `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Decode decodes an envelope from a response body
func Decode(body []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(bytes.TrimSpace(body), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Succeeded returns true if the envelope carries a truthy success payload
func (e *Envelope) Succeeded() bool {
	return e != nil && Truthy(e.Success)
}

// HasError returns true if the envelope carries a truthy error member
func (e *Envelope) HasError() bool {
	return e != nil && Truthy(e.Err)
}

// ErrorMessage returns the message of a truthy error member. Non-string errors
// are returned as their JSON text.
func (e *Envelope) ErrorMessage() string {
	if !e.HasError() {
		return ""
	}
	if s, ok := e.ErrorString(); ok {
		return s
	}
	return string(bytes.TrimSpace(e.Err))
}

// ErrorString returns the error member if it is a JSON string
func (e *Envelope) ErrorString() (string, bool) {
	if e == nil || len(e.Err) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(e.Err, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsError converts an unsuccessful envelope into an error. It returns ErrUnknown
// if there is no error member.
func (e *Envelope) AsError(statusCode int) error {
	if !e.HasError() {
		return ErrUnknown
	}
	return &Error{
		Message:    e.ErrorMessage(),
		StatusCode: statusCode,
		Data:       e.Data,
	}
}

// Payload returns the data member when truthy, else the success member
func (e *Envelope) Payload() json.RawMessage {
	if e == nil {
		return nil
	}
	if Truthy(e.Data) {
		return e.Data
	}
	return e.Success
}

// DataOrEmpty returns the data member when truthy, else an empty JSON object
func (e *Envelope) DataOrEmpty() json.RawMessage {
	if e != nil && Truthy(e.Data) {
		return e.Data
	}
	return EmptyObject()
}

// EmptyObject returns a fresh empty JSON object
func EmptyObject() json.RawMessage {
	return json.RawMessage("{}")
}

// Truthy reports whether a raw JSON value is truthy
func Truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	if v[0] == '-' || (v[0] >= '0' && v[0] <= '9') {
		f, err := strconv.ParseFloat(string(v), 64)
		return err != nil || f != 0
	}
	return true
}
