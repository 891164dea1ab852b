// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser contains the logic for parsing grammar source into an
// AST (abstract syntax tree).
//
// The grammar language looks like this:
//
//	grammar Calc : Base {
//	    use "strconv"
//
//	    /// Parses a sum.
//	    pub rule expr -> int64 =
//	        l:expr "+" r:term -> { l + r }
//	      | t:term            -> { t }
//
//	    rule term -> int64 = i:integer -> { i }
//	}
//
// Go types and action blocks are not parsed by this package beyond balancing
// their delimiters. Types are checked to be syntactically valid Go
// expressions; action blocks are passed through verbatim.
//
// Errors are reported through a [reporter.Handler]. After a syntax error in a
// rule, the parser skips to the start of the next rule and keeps going, so one
// run reports as many syntax errors as possible.
package parser
