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

// Package rt is the runtime support library for parsers produced by
// grammarc. Generated code is a set of plain recursive-descent functions
// over a [*Context]; this package supplies the pieces they share: input
// checkpoints, whitespace skipping, farthest-failure error reporting,
// combinators for alternation, repetition, lookahead, recovery and
// left-recursion loops, and a matcher for every builtin a grammar may call.
//
// A Context holds the state of a single parse and is not safe for
// concurrent use.
package rt
