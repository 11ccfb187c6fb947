// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package typeconv converts raw argument values to declared parameter types.
//
// Types are described by TypeInfo values, parsed from type strings such as
// "int", "list[int]", "dict[str, float]", "int | None" or
// "tuple[int, ...]", or registered by name on a Converter: enumerations,
// structurally typed records and custom converter functions. Each TypeInfo
// carries a go-cty type handle describing its native shape where one exists.
//
// Conversion failures are *ConversionError values carrying the argument
// name, the declared type and the offending value.
package typeconv
