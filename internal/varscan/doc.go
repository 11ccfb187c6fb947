// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package varscan finds and decomposes variable references such as ${name},
// @{list}, &{dict} and %{ENV} in arbitrary text.
//
// The scanner never fails. Malformed or unclosed references are simply not
// reported, and callers decide whether a literal sigil is acceptable where
// they found one. A reference is described by a Match holding the sigil, the
// base name (which may itself contain references), any chained [item]
// suffixes, and the exact [Start, End) span inside the scanned text.
//
// Two brace strategies exist. The default counts every unescaped brace, so the
// reference closes at the rightmost brace compatible with the nesting; this is
// what keyword-name templates like ${digits:\d{3}} need. PreferFirst counts only
// nested reference openers, so the first free closing brace ends the reference.
package varscan
