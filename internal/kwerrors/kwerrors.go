// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package kwerrors holds the failure taxonomy shared by the engine and
// keyword libraries.
package kwerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for propagation.
type Kind int

const (
	// KindFailure is an ordinary assertion failure.
	KindFailure Kind = iota
	// KindDefinition is a problem in the test data itself: unknown or
	// ambiguous keywords, malformed argument specs, invalid syntax.
	KindDefinition
	// KindFatal stops the whole run.
	KindFatal
	// KindSkip marks the current test skipped.
	KindSkip
	// KindTimeout is an exceeded test or keyword timeout.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindFatal:
		return "fatal"
	case KindSkip:
		return "skip"
	case KindTimeout:
		return "timeout"
	}
	return "failure"
}

// Failure is an assertion failure. Continuable failures let the following
// steps run; the test still fails at the end.
type Failure struct {
	Message     string
	Continuable bool
}

func (e *Failure) Error() string { return e.Message }

// Fatal stops the run after the current test.
type Fatal struct {
	Message string
}

func (e *Fatal) Error() string { return e.Message }

// Skip skips the current test.
type Skip struct {
	Message string
}

func (e *Skip) Error() string { return e.Message }

// Definition is an error in test data detected before or during execution.
type Definition struct {
	Message string
}

func (e *Definition) Error() string { return e.Message }

// Failf returns an ordinary failure.
func Failf(format string, args ...any) error {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// Continuef returns a continuable failure.
func Continuef(format string, args ...any) error {
	return &Failure{Message: fmt.Sprintf(format, args...), Continuable: true}
}

// Definitionf returns a definition error.
func Definitionf(format string, args ...any) error {
	return &Definition{Message: fmt.Sprintf(format, args...)}
}

// timeoutError is satisfied by the timeout package's error type.
type timeoutError interface {
	error
	Timeout() bool
}

// definitionError is satisfied by errors that describe invalid test data
// without importing this package, such as argument mismatches.
type definitionError interface {
	error
	DefinitionError() bool
}

// Classify returns the kind of err. Errors outside the taxonomy are
// ordinary failures.
func Classify(err error) Kind {
	var (
		fatal *Fatal
		skip  *Skip
		def   *Definition
		to    timeoutError
		defI  definitionError
		multi *Multiple
	)
	switch {
	case errors.As(err, &multi):
		return multi.kind()
	case errors.As(err, &fatal):
		return KindFatal
	case errors.As(err, &skip):
		return KindSkip
	case errors.As(err, &to) && to.Timeout():
		return KindTimeout
	case errors.As(err, &def):
		return KindDefinition
	case errors.As(err, &defI) && defI.DefinitionError():
		return KindDefinition
	}
	return KindFailure
}

// IsContinuable reports whether execution may go on after err. Only
// continuable failures qualify; a Multiple qualifies when all of its
// members do.
func IsContinuable(err error) bool {
	var multi *Multiple
	if errors.As(err, &multi) {
		for _, e := range multi.Errors {
			if !IsContinuable(e) {
				return false
			}
		}
		return len(multi.Errors) > 0
	}
	var f *Failure
	return errors.As(err, &f) && f.Continuable
}

// IsFatal reports whether err stops the run.
func IsFatal(err error) bool {
	return err != nil && Classify(err) == KindFatal
}

// IsSkip reports whether err skips the test.
func IsSkip(err error) bool {
	return err != nil && Classify(err) == KindSkip
}

// Multiple collects failures from steps that continued on failure.
type Multiple struct {
	Errors []error
}

func (e *Multiple) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	b.WriteString("Several failures occurred:")
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n\n%d) %s", i+1, err.Error())
	}
	return b.String()
}

func (e *Multiple) Unwrap() []error {
	return e.Errors
}

// kind is the most severe kind among the members.
func (e *Multiple) kind() Kind {
	out := KindFailure
	skips := 0
	for _, err := range e.Errors {
		switch k := Classify(err); k {
		case KindFatal:
			return KindFatal
		case KindSkip:
			skips++
		case KindTimeout, KindDefinition:
			out = k
		}
	}
	if skips == len(e.Errors) && skips > 0 {
		return KindSkip
	}
	return out
}

// Join combines failures. Nil errors are dropped, a single error is
// returned as is and nested Multiples are flattened.
func Join(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		var multi *Multiple
		if errors.As(err, &multi) && err == error(multi) {
			flat = append(flat, multi.Errors...)
			continue
		}
		flat = append(flat, err)
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &Multiple{Errors: flat}
}

// WithTeardown appends a teardown failure to the body outcome. A nil body
// error yields "Teardown failed:" and a body error "Also teardown failed:".
// The kind of the body failure is kept unless the body was skipped or the
// teardown was fatal.
func WithTeardown(body, teardown error) error {
	if teardown == nil {
		return body
	}
	if body == nil {
		return &wrapped{msg: "Teardown failed:\n" + teardown.Error(), cause: teardown}
	}
	cause := body
	if IsFatal(teardown) || IsSkip(body) {
		cause = teardown
	}
	return &wrapped{msg: body.Error() + "\n\nAlso teardown failed:\n" + teardown.Error(), cause: cause}
}

// Prefixed rewrites the message of err while keeping its kind, as in
// "Parent suite setup failed:\n<msg>".
func Prefixed(prefix string, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{msg: prefix + err.Error(), cause: err}
}

type wrapped struct {
	msg   string
	cause error
}

func (e *wrapped) Error() string { return e.msg }
func (e *wrapped) Unwrap() error { return e.cause }
