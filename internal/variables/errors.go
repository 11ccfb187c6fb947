// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package variables

import "errors"

var (
	// ErrNotFound is the kind of every error about an undefined variable.
	ErrNotFound = errors.New("variable not found")
	// ErrAttribute is the kind of errors raised when a value rejects an
	// extended assignment.
	ErrAttribute = errors.New("attribute error")
	// ErrInvalid is the kind of errors about malformed names and values of
	// the wrong shape.
	ErrInvalid = errors.New("invalid variable")
)

// VariableError is returned for every variable related failure. Its kind is
// one of ErrNotFound, ErrAttribute or ErrInvalid.
type VariableError struct {
	Name    string
	Kind    error
	Message string
}

func (e *VariableError) Error() string {
	return e.Message
}

func (e *VariableError) Unwrap() error {
	return e.Kind
}

func newError(kind error, name, msg string) *VariableError {
	return &VariableError{Name: name, Kind: kind, Message: msg}
}
