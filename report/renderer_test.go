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

package report_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/grammarc/report"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/source"
)

const grammarText = `grammar Calc {
	rule main -> int64 = e:exprr -> { e }
}
`

func newReport(t *testing.T) *report.Report {
	t.Helper()
	file := source.NewFile("calc.grammar", grammarText)
	start := strings.Index(grammarText, "exprr")
	require.Positive(t, start)

	var collector reporter.Collector
	h := reporter.NewHandler(&collector)
	require.NoError(t, h.HandleErrorf(file.Span(start, start+5), "undefined rule: 'exprr'"))
	h.HandleWarning(file.Span(16, 20), errors.New("rule 'main' is never used"))
	return report.FromCollector(&collector)
}

func TestCompact(t *testing.T) {
	t.Parallel()

	text, errs, warnings := report.Renderer{Compact: true}.RenderString(newReport(t))
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, warnings)
	assert.Equal(t,
		"warning: calc.grammar:2:2: rule 'main' is never used\n"+
			"error: calc.grammar:2:25: undefined rule: 'exprr'\n",
		text,
	)
}

func TestRich(t *testing.T) {
	t.Parallel()

	text, errs, _ := report.Renderer{WarningsAreErrors: true}.RenderString(newReport(t))
	assert.Equal(t, 2, errs)
	// The tab at the start of the line expands to a full tabstop, and the
	// underline follows it.
	assert.Contains(t, text, "error: undefined rule: 'exprr'\n"+
		"  --> calc.grammar:2:25\n"+
		"   |\n"+
		" 2 |     rule main -> int64 = e:exprr -> { e }\n"+
		"   |                            ^^^^^\n")
	assert.True(t, strings.HasSuffix(text, "encountered 2 errors\n"), text)
}

func TestSpanless(t *testing.T) {
	t.Parallel()

	r := &report.Report{Diagnostics: []report.Diagnostic{{
		Level:   report.Error,
		Message: "no input files",
		Help:    []string{"pass a glob such as **/*.grammar"},
	}}}
	assert.Equal(t, "error: no input files", report.Renderer{Compact: true}.Diagnostic(r.Diagnostics[0]))
	assert.Equal(t,
		"error: no input files\n   = help: pass a glob such as **/*.grammar",
		report.Renderer{}.Diagnostic(r.Diagnostics[0]),
	)
}
