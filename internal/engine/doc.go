// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package engine walks a model.Suite tree and produces the parallel
// result.Result tree.
//
// Execution is single threaded and depth first. Tests run in document
// order; every body item gets its result node when execution reaches it.
// Test and keyword bodies with a timeout run under timeout.Governor, the
// only place where a second goroutine is involved.
//
// Failures travel as errors classified by the kwerrors package. RETURN,
// BREAK and CONTINUE travel as control signals, also errors, unwound by the
// nearest user keyword or loop.
package engine
