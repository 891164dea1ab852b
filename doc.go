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

// Package grammarc provides the entry point for compiling grammar files into
// Go parsers. "Compile" means parsing and validating grammar source, then
// generating Go source for a recursive-descent parser per grammar.
//
// The various sub-packages represent the compile phases and contain models
// for the intermediate results. Those phases follow:
//  1. Parse into AST.
//     Also see: parser.Parse
//  2. Build the semantic model, linked to the parent grammar.
//     Also see: model.Build
//  3. Validate the model.
//     Also see: validator.Validate
//  4. Classify left recursion and nullability.
//     Also see: analysis.Analyze
//  5. Lower to a program and emit Go.
//     Also see: codegen.Lower, codegen.EmitGo
//
// This package provides an easy-to-use interface that does all of the phases,
// based on the inputs given. Grammars are compiled in parallel, with each
// grammar waiting only for the parent it extends.
//
// # Resolvers
//
// A Resolver is how the compiler locates grammar files. It is used to load
// the files that are to be compiled and also the parents they extend. A
// parent named Base is looked for as Base.grammar, then base.grammar, first
// next to the file that extends it and then through the resolver.
//
// # Compiler
//
// A Compiler accepts a list of file names and produces a [Result] per
// grammar. Only the Resolver field is required. A minimal Compiler, that
// loads files from the file system relative to the current working
// directory, can be had with the following snippet:
//
//	compiler := grammarc.Compiler{
//	    Resolver: &grammarc.SourceResolver{},
//	}
//
// Errors are reported to the compiler's Reporter. The default reporter lets
// compilation continue past errors, so that every problem in every file is
// reported before Compile returns.
package grammarc
