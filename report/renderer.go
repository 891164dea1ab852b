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

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Renderer configures a diagnostic rendering operation.
type Renderer struct {
	// If set, uses a compact one-line format for each diagnostic.
	Compact bool

	// If set, rendering results are enriched with ANSI color escapes.
	Colorize bool

	// Upgrades all warnings to errors.
	WarningsAreErrors bool
}

// Render renders a diagnostic report.
//
// In addition to returning the rendering result, returns the number of errors
// and warnings in the report. The error return is an error when writing to
// the writer.
func (r Renderer) Render(report *Report, out io.Writer) (errorCount, warningCount int, err error) {
	for _, diagnostic := range report.Diagnostics {
		if _, err = fmt.Fprintln(out, r.Diagnostic(diagnostic)); err != nil {
			return
		}
		if !r.Compact {
			if _, err = fmt.Fprintln(out); err != nil {
				return
			}
		}

		switch r.level(diagnostic.Level) {
		case Error:
			errorCount++
		case Warning:
			warningCount++
		}
	}
	if r.Compact || (errorCount == 0 && warningCount == 0) {
		return
	}

	c := r.colors()
	pluralize := func(count int, what string) string {
		if count == 1 {
			return "1 " + what
		}
		return fmt.Sprint(count, " ", what, "s")
	}
	summary := "encountered "
	color := c.bWarning
	switch {
	case errorCount > 0 && warningCount > 0:
		summary += pluralize(errorCount, "error") + " and " + pluralize(warningCount, "warning")
		color = c.bError
	case errorCount > 0:
		summary += pluralize(errorCount, "error")
		color = c.bError
	default:
		summary += pluralize(warningCount, "warning")
	}
	_, err = fmt.Fprintln(out, color+summary+c.reset)
	return
}

// RenderString is a helper for calling [Renderer.Render] with a [strings.Builder].
func (r Renderer) RenderString(report *Report) (text string, errorCount, warningCount int) {
	var buf strings.Builder
	e, w, _ := r.Render(report, &buf)
	return buf.String(), e, w
}

// Diagnostic renders a single diagnostic to a string.
func (r Renderer) Diagnostic(d Diagnostic) string {
	level := r.level(d.Level)
	c := r.colors()

	// For the compact style, we imitate the Go compiler.
	if r.Compact {
		if d.Span.IsZero() {
			return fmt.Sprintf("%s%s: %s%s", c.forLevel(level), level, d.Message, c.reset)
		}
		start := d.Span.StartLoc()
		return fmt.Sprintf(
			"%s%s: %s:%d:%d: %s%s",
			c.forLevel(level), level,
			d.Span.Path(), start.Line, start.Column,
			d.Message, c.reset,
		)
	}

	var out strings.Builder
	fmt.Fprint(&out, c.boldForLevel(level), level, ": ", d.Message, c.reset)
	if d.Span.IsZero() {
		r.footers(&out, d, 2)
		return out.String()
	}

	start, end := d.Span.StartLoc(), d.Span.EndLoc()
	lineBarWidth := max(2, len(strconv.Itoa(end.Line)))

	out.WriteByte('\n')
	out.WriteString(c.accent)
	padBy(&out, lineBarWidth)
	fmt.Fprintf(&out, "--> %s:%d:%d", d.Span.Path(), start.Line, start.Column)
	out.WriteByte('\n')
	padBy(&out, lineBarWidth)
	out.WriteString(" |")

	// Only the first line of a multi-line span is shown, with the underline
	// running to the end of that line.
	lineStart, _ := d.Span.LineOffsets(start.Line)
	text := d.Span.Line(start.Line)
	printed, columns := expandLine(text)
	from := min(d.Span.Start-lineStart, len(text))
	to := min(d.Span.End-lineStart, len(text))
	if end.Line != start.Line {
		to = len(text)
	}

	out.WriteByte('\n')
	fmt.Fprintf(&out, "%*d | %s", lineBarWidth, start.Line, c.reset)
	out.WriteString(printed)
	out.WriteByte('\n')
	out.WriteString(c.accent)
	padBy(&out, lineBarWidth)
	out.WriteString(" | ")
	padBy(&out, columns[from])
	width := max(1, columns[to]-columns[from])
	out.WriteString(c.forLevel(level))
	out.WriteString(strings.Repeat("^", width))
	out.WriteString(c.reset)

	r.footers(&out, d, lineBarWidth)
	return out.String()
}

func (r Renderer) footers(out *strings.Builder, d Diagnostic, lineBarWidth int) {
	c := r.colors()
	for _, help := range d.Help {
		out.WriteByte('\n')
		out.WriteString(c.accent)
		padBy(out, lineBarWidth)
		out.WriteString(" = ")
		fmt.Fprint(out, c.bNote, "help: ", c.reset, help)
	}
}

func (r Renderer) level(l Level) Level {
	if l == Warning && r.WarningsAreErrors {
		return Error
	}
	return l
}

func (r Renderer) colors() stylesheet {
	if !r.Colorize {
		return stylesheet{}
	}
	return stylesheet{
		reset: "\033[0m",
		// Red.
		nError: "\033[0;31m",
		bError: "\033[1;31m",
		// Yellow.
		nWarning: "\033[0;33m",
		bWarning: "\033[1;33m",
		// Cyan.
		bNote: "\033[1;36m",
		// Blue, used for line numbers and gutters.
		accent: "\033[0;34m",
	}
}

// stylesheet is the colors used for pretty-rendering diagnostics.
type stylesheet struct {
	reset            string
	nError, nWarning string
	bError, bWarning string
	bNote, accent    string
}

func (c stylesheet) forLevel(l Level) string {
	switch l {
	case Error:
		return c.nError
	case Warning:
		return c.nWarning
	default:
		return c.accent
	}
}

func (c stylesheet) boldForLevel(l Level) string {
	switch l {
	case Error:
		return c.bError
	case Warning:
		return c.bWarning
	default:
		return c.bNote
	}
}

func padBy(out *strings.Builder, spaces int) {
	for range spaces {
		out.WriteByte(' ')
	}
}
