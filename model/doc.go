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

// Package model contains the semantic model of a grammar.
//
// The model is produced from a syntax tree by [Build]. Compared to the
// syntax tree, the model has sequences flattened, transparent groups inlined,
// literals split into token pieces, every rule call resolved and every
// binding annotated with the Go type of the value it binds.
//
// A model is immutable once built. The only link between grammars is the
// explicit [Grammar.Parent] reference used for inherited rule lookup.
package model
