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

// Package analysis computes the facts about a validated grammar that code
// generation depends on.
//
// The central fact is the left-recursion [Classification] of each rule: its
// variants split into base variants and directly left-recursive variants.
// Only direct recursion is detected. A rule that reaches itself through
// another rule is not classified as recursive and will recurse at runtime
// until the runtime's depth limit stops it.
//
// The package also locates cut points, collects the grammar's keyword set,
// computes which rules can match empty input, flags loops that could spin
// without consuming input and determines which bindings each variant exports
// to its action.
package analysis
