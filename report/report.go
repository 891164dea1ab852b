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

// Package report renders compiler diagnostics for humans.
//
// Two styles are supported: a compact one-line style that imitates the Go
// compiler, and a rich style that shows the offending source line with an
// underline beneath the span.
package report

import (
	"cmp"
	"slices"

	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/source"
)

// Level is the severity of a diagnostic.
type Level int8

const (
	// Error is a diagnostic that fails compilation.
	Error Level = iota + 1
	// Warning is a diagnostic that does not fail compilation.
	Warning
	// Note is extra information attached to another diagnostic.
	Note
)

// String implements [fmt.Stringer].
func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is a single message with an optional span.
type Diagnostic struct {
	Level   Level
	Message string
	Span    source.Span

	// Extra lines printed under the snippet.
	Help []string
}

// Report is an ordered collection of diagnostics.
type Report struct {
	Diagnostics []Diagnostic
}

// FromCollector builds a report from everything a [reporter.Collector] has
// seen. Errors and warnings are interleaved by file and position.
func FromCollector(c *reporter.Collector) *Report {
	r := new(Report)
	for _, err := range c.Errors() {
		r.Add(Error, err)
	}
	for _, err := range c.Warnings() {
		r.Add(Warning, err)
	}
	r.Sort()
	return r
}

// Add appends a diagnostic for the given positioned error.
func (r *Report) Add(level Level, err reporter.ErrorWithPos) {
	msg := err.Error()
	if inner := err.Unwrap(); inner != nil {
		msg = inner.Error()
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Level:   level,
		Message: msg,
		Span:    err.GetPosition(),
	})
}

// Sort orders diagnostics by file path, then offset, then level.
func (r *Report) Sort() {
	slices.SortStableFunc(r.Diagnostics, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Span.Path(), b.Span.Path()),
			cmp.Compare(a.Span.Start, b.Span.Start),
			cmp.Compare(a.Level, b.Level),
		)
	})
}
