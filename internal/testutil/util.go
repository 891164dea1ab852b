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

// Package testutil contains helpers shared by the tests of several packages.
package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bufbuild/grammarc/analysis"
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/codegen"
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/parser"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/validator"
)

// BuildModel parses text and builds its model, using the Go builtins and the
// given parent. It fails the test on any syntax or build error.
func BuildModel(t testing.TB, parent *model.Grammar, text string) *model.Grammar {
	t.Helper()
	var collector reporter.Collector
	handler := reporter.NewHandler(&collector)
	node, err := parser.Parse(fileName(t), strings.NewReader(text), handler)
	require.NoError(t, err, "syntax errors: %v", Messages(collector.Errors()))
	g, err := model.Build(node, model.Options{Parent: parent, Builtins: builtins.Go()}, handler)
	require.NoError(t, err, "build errors: %v", Messages(collector.Errors()))
	return g
}

// Messages returns the text of each error, without position information.
func Messages(errs []reporter.ErrorWithPos) []string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Unwrap().Error()
	}
	return msgs
}

// Check runs fn with a handler that collects everything reported, and
// returns the collected error and warning messages.
func Check(fn func(*reporter.Handler)) (errs, warnings []string) {
	var collector reporter.Collector
	fn(reporter.NewHandler(&collector))
	return Messages(collector.Errors()), Messages(collector.Warnings())
}

// Compile builds, validates, analyzes and lowers each grammar in texts.
// Each grammar after the first extends the one before it. It fails the test
// on any error and returns the program of the last grammar.
func Compile(t testing.TB, texts ...string) *codegen.Program {
	t.Helper()
	progs := CompileLineage(t, "", texts...)
	return progs[len(progs)-1]
}

// CompileLineage is like [Compile], but lowers every grammar into the given
// package and returns all the programs, root first.
func CompileLineage(t testing.TB, pkg string, texts ...string) []*codegen.Program {
	t.Helper()
	var parent *model.Grammar
	var progs []*codegen.Program
	for _, text := range texts {
		g := BuildModel(t, parent, text)
		opts := codegen.Options{Package: pkg}
		if len(progs) > 0 {
			opts.Parent = progs[len(progs)-1]
		}
		var prog *codegen.Program
		errs, _ := Check(func(h *reporter.Handler) {
			if validator.Validate(g, builtins.Go(), h) != nil {
				return
			}
			facts, err := analysis.Analyze(g, builtins.Go(), h)
			if err == nil {
				prog = codegen.Lower(g, facts, opts)
			}
		})
		require.Empty(t, errs, "grammar %s", g.Name)
		require.NotNil(t, prog, "grammar %s", g.Name)
		progs = append(progs, prog)
		parent = g
	}
	return progs
}

func fileName(t testing.TB) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + ".grammar"
}
