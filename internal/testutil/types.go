// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import "time"

// ExecutionRecord holds the start and end times of one keyword call.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}
