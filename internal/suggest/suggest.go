// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package suggest ranks "did you mean" candidates for unknown names.
package suggest

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/vk/kwgrid/internal/normalize"
)

// maxSuggestions caps the number of recommendations.
const maxSuggestions = 5

// Closest returns up to five candidates resembling name, best first. A
// candidate qualifies when name's characters appear in it in order, or when it
// is within a small edit distance of name after normalization.
func Closest(name string, candidates []string) []string {
	target := normalize.Name(name)
	if target == "" || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		text     string
		distance int
	}
	seen := make(map[string]bool)
	var results []scored

	normalized := make([]string, len(candidates))
	byNormalized := make(map[string]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = normalize.Name(c)
		byNormalized[normalized[i]] = c
	}

	ranks := fuzzy.RankFindFold(target, normalized)
	sort.Sort(ranks)
	for _, r := range ranks {
		original := byNormalized[r.Target]
		if r.Target == target || seen[original] {
			continue
		}
		seen[original] = true
		results = append(results, scored{text: original, distance: r.Distance})
	}

	limit := max(1, len(target)/3)
	for i, n := range normalized {
		original := candidates[i]
		if n == target || seen[original] {
			continue
		}
		if d := fuzzy.LevenshteinDistance(target, n); d <= limit {
			seen[original] = true
			results = append(results, scored{text: original, distance: d})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].distance < results[j].distance
	})
	out := make([]string, 0, min(len(results), maxSuggestions))
	for _, r := range results {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, r.text)
	}
	return out
}

// Format renders recommendations as an indented "Did you mean" block, or an
// empty string when there are none.
func Format(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nDid you mean:")
	for _, s := range suggestions {
		b.WriteString("\n    ")
		b.WriteString(s)
	}
	return b.String()
}
