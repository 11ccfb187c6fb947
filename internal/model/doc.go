// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model is the executable representation of test data: suites, tests,
// user keywords and the body items inside them.
//
// # Core Concepts
//
//   - Suite: a named collection of tests and nested suites. Suites carry their
//     own settings (setup, teardown, variables, library imports, default test
//     settings) and the user keywords visible to their tests.
//
//   - Test: an ordered body plus tags, timeout, setup and teardown.
//
//   - UserKeyword: a keyword implemented in test data. Its name may be an
//     embedded argument pattern such as "Select ${item} from ${list}".
//
//   - Item: one body item. The set is closed: keyword calls, FOR, WHILE, IF,
//     TRY, VAR, RETURN, BREAK, CONTINUE and ERROR.
//
// Why an arena?
//
// Body items live in one flat Arena per suite tree and refer to each other
// through ItemID indices. Parent links are indices too, so the tree has no
// reference cycles. A listener may replace the body of a node right before it
// runs; SetBody appends the new items and rewrites the child list of the
// owner, leaving every other ID stable.
package model
