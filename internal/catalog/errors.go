// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package catalog

import (
	"fmt"
	"strings"

	"github.com/vk/kwgrid/internal/suggest"
)

// NotFoundError reports a call-site name matching no keyword.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if strings.TrimSpace(e.Name) == "" {
		return "Keyword name cannot be empty."
	}
	return fmt.Sprintf("No keyword with name '%s' found.", e.Name) + suggest.Format(e.Suggestions)
}

func (e *NotFoundError) DefinitionError() bool { return true }

// AmbiguousError reports a call-site name matching several keywords of the
// same precedence.
type AmbiguousError struct {
	Name string
	// Candidates are full names, sorted.
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Multiple keywords with name '%s' found. Give the full name of the keyword you want to use:", e.Name)
	for _, c := range e.Candidates {
		b.WriteString("\n    ")
		b.WriteString(c)
	}
	return b.String()
}

func (e *AmbiguousError) DefinitionError() bool { return true }

// RegistrationError reports a keyword that cannot be added to a catalog.
type RegistrationError struct {
	Keyword string
	Message string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("Keyword '%s' %s", e.Keyword, e.Message)
}

func (e *RegistrationError) DefinitionError() bool { return true }
