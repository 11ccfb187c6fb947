// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package exitcodes defines the exit codes used by kwgrid.
package exitcodes

// Exit code constants. Codes 1 to 250 are the number of failed tests; more
// failures than that still exit with 250.
const (
	Success       = 0   // All tests passed
	MaxFailed     = 250 // Cap for the failed test count
	Help          = 251 // Help or version was printed
	InvalidData   = 252 // Invalid test data or command line usage
	Interrupted   = 253 // Execution was stopped by a signal
	InternalError = 255 // Unexpected internal error
)

// FromFailed returns the exit code for a run with the given number of failed tests.
func FromFailed(failed int) int {
	switch {
	case failed <= 0:
		return Success
	case failed > MaxFailed:
		return MaxFailed
	}
	return failed
}
