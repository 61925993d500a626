// Package status defines the business status codes shared by every API
// endpoint, along with the typed error used to signal a failed check from
// anywhere inside a request pipeline.
//
// The four-digit codes are part of the wire contract consumed by clients and
// must never change value:
//
//	"0000"          success
//	"0001"-"0099"   generic parameter errors
//	"0100"-"0199"   user management errors
//	"9999"          anything uncaught
//
// Messages are built from per-code templates; the {param} placeholder is
// substituted with the offending field name. Clients match on those message
// substrings, so the templates are as much contract as the codes themselves.
package status

import (
	"errors"
	"strings"
)

// Code is a four-digit business status code.
type Code string

const (
	Success Code = "0000"

	ParamIsNull     Code = "0001"
	ParamDuplicated Code = "0002"
	ParamLength     Code = "0003"

	BadCredentials Code = "0100"
	RoleError      Code = "0101"

	Unknown Code = "9999"
)

// messages maps each code to its template. Read-only after init.
var messages = map[Code]string{
	Success: "",

	ParamIsNull:     "[{param}] is null",
	ParamDuplicated: "[{param}] is duplicate",
	ParamLength:     "[{param}] incorrect character length",

	BadCredentials: "username or password is error",
	RoleError:      "user role error",

	Unknown: "other error",
}

// Message renders the template for code, substituting {param} with param.
// Unknown codes fall back to the generic message.
func Message(code Code, param string) string {
	tpl, ok := messages[code]
	if !ok {
		tpl = messages[Unknown]
	}
	return strings.ReplaceAll(tpl, "{param}", param)
}

// Error is the signal raised by validation helpers and resource hooks to
// short-circuit a request. It is consumed exactly once, at the handler
// boundary, where it becomes an error envelope.
type Error struct {
	Code  Code
	Param string
	// Msg overrides the templated message when non-empty (used for the
	// catch-all path where the underlying failure text is passed through).
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return Message(e.Code, e.Param)
}

// New returns a status error for code naming the given parameter.
func New(code Code, param string) *Error {
	return &Error{Code: code, Param: param}
}

// Errorf returns a status error for code with an explicit message.
func Errorf(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// From extracts the *Error from err's chain. For any other error it returns
// an Unknown-code error carrying the original text verbatim, so no failure
// ever leaves the boundary unclassified.
func From(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Code: Unknown, Msg: err.Error()}
}

// Is reports whether err carries the given status code.
func Is(err error, code Code) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}
