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

// Package codegen turns an analyzed grammar into a Go parser.
//
// Generation happens in two steps. [Lower] converts the model into a
// [Program]: a plan of matching steps per rule variant in which
// left-recursive rules are already split into base arms and tails, and
// every binding is assigned to the block that declares it. [EmitGo] then
// renders the program as gofmt-ed Go source that calls into package rt.
// Package interp executes the same plan without generating code.
package codegen
