// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package hcl_adapter loads suites written in HCL into the model.
//
// Each file holds one or more suite blocks:
//
//	suite "Login" {
//	  doc       = "Login scenarios."
//	  variables = { HOST = "example.com", "@{USERS}" = ["alice", "bob"] }
//	  setup     = ["Log", "Starting."]
//	  test_tags = ["smoke"]
//
//	  library "HttpClient" {}
//
//	  keyword "Login As" {
//	    args = ["${user}", "${password}=secret"]
//	    call "Log" { args = ["Logging in as ${user}."] }
//	  }
//
//	  test "Valid Login" {
//	    tags = ["positive"]
//	    call "Login As" { args = ["alice"] }
//	    for {
//	      vars = ["${u}"]
//	      in   = ["@{USERS}"]
//	      call "Log" { args = ["${u}"] }
//	    }
//	  }
//	}
//
// Quoted strings in attributes are taken verbatim, so "${name}" is a
// variable reference and not HCL interpolation. HCL still parses the text
// between the braces, so references it cannot parse, such as "${n: int}"
// or "${d['k']}", are written with "$${". Block labels are plain HCL
// string literals and always need "$${" to contain a variable. "%{" starts
// an HCL template directive and must be written as "%%{".
//
// Body items are the blocks call, var, for, while, if, else_if, else, try,
// except, finally, return, break and continue. IF and TRY chains are formed
// from consecutive sibling blocks. Malformed items become error items that
// fail only when executed; unknown suite and test settings are logged and
// ignored.
package hcl_adapter
