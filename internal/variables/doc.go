// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package variables implements the layered variable store.
//
// A Store is an immutable chain of scopes, outermost first. Entering a suite,
// test, keyword or loop iteration creates a child Store with one more scope;
// leaving simply drops the child. Scopes themselves are shared and guarded by
// their own lock, so a write to the test scope made from inside a keyword is
// seen once the keyword returns.
//
// Names are normalized: case, spaces and underscores are ignored and the
// sigil is not part of the key. Local variables of a test or keyword are not
// visible inside the keywords it calls; variables set explicitly into the
// test, suite or global scope are.
package variables
