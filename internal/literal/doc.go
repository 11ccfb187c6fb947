// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package literal evaluates the small expression language used for container
// literals and IF/WHILE conditions.
//
// Input is written in the familiar scripting style ('text', True, None,
// and/or/not, $name references). It is rewritten token by token into HCL
// native syntax, parsed with hclsyntax and checked against a whitelist of node
// types before anything is evaluated. Values cross the boundary as go-cty
// values and come back as plain Go values: string, bool, int, float64, nil,
// []any and map[string]any.
package literal
