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

// Package ast defines types for modeling the syntax of grammar source files.
//
// The tree mirrors the concrete syntax closely: groups, delimiters and
// postfix operators are kept as written, and Go code fragments (types and
// action blocks) are kept as raw text. Lowering to a semantic form happens in
// package model.
//
// All nodes carry a [source.Span]. Comments are not represented in the tree,
// except for /// doc comments, which become "doc" attributes.
package ast
