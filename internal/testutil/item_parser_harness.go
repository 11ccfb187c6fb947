// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/hcl_adapter"
	"github.com/vk/kwgrid/internal/model"
)

// ItemTestCase defines a single scenario for testing the parsing of body
// items inside a test block.
type ItemTestCase struct {
	Name string
	// HCL should contain only the content *inside* the `test "t" { ... }` block.
	// It can be written as a readable, indented multi-line string.
	HCL string
	// ErrContains, when set, must appear in the message of the first item,
	// which must be an error item.
	ErrContains string
	// Validate performs assertions on the parsed body. It is only called
	// if ErrContains is empty.
	Validate func(t *testing.T, arena *model.Arena, body []model.ItemID)
}

// RunItemParsingTests provides a reusable harness for testing the parsing of HCL body items.
// It iterates through a table of test cases, handling boilerplate and common assertions.
func RunItemParsingTests(t *testing.T, cases []ItemTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			fullHCL := fmt.Sprintf("suite \"parse\" {\ntest \"t\" {\n%s\n}\n}\n", unindent(tc.HCL))
			path := filepath.Join(t.TempDir(), "parse.hcl")
			require.NoError(t, os.WriteFile(path, []byte(fullHCL), 0o644))

			suite, err := hcl_adapter.NewLoader().Load(context.Background(), path)
			require.NoError(t, err, "Expected successful parsing, but got an error")
			require.Len(t, suite.Tests, 1, "Expected exactly one test to be parsed")
			body := suite.Tests[0].Body

			if tc.ErrContains != "" {
				require.NotEmpty(t, body)
				item, ok := suite.Arena.Get(body[0]).(*model.Error)
				require.True(t, ok, "Expected an error item, got %T", suite.Arena.Get(body[0]))
				require.Contains(t, item.Message, tc.ErrContains, "Error message did not contain the expected text")
				return
			}

			if tc.Validate != nil {
				tc.Validate(t, suite.Arena, body)
			}
		})
	}
}
