// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package registry collects the keyword libraries compiled into the binary.
//
// Every module under modules/ implements Module and registers one or more
// library imports. At startup the registry is validated: each library is
// instantiated once and its keyword argument declarations and type strings
// are parsed, so a broken library fails the process before any test runs
// instead of failing every test that calls it.
package registry
