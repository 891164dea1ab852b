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
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// TabstopWidth is the size we render all tabstops as.
const TabstopWidth int = 4

// NonPrint defines whether or not a rune is considered "unprintable for the
// purposes of diagnostics", that is, whether it is a rune that the renderer
// will replace with <U+NNNN> when printing.
func NonPrint(r rune) bool {
	return !strings.ContainsRune(" \r\t\n", r) && !unicode.IsPrint(r)
}

// expandLine returns text as it should be printed, with tabs expanded and
// non-printable runes escaped. columns holds the display column of every
// byte offset in text, so that spans can be mapped to columns.
func expandLine(text string) (out string, columns []int) {
	var buf strings.Builder
	columns = make([]int, len(text)+1)
	column := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		for j := range size {
			columns[i+j] = column
		}
		switch {
		case r == '\t':
			pad := TabstopWidth - column%TabstopWidth
			buf.WriteString(strings.Repeat(" ", pad))
			column += pad
		case NonPrint(r):
			escape := fmt.Sprintf("<U+%04X>", r)
			buf.WriteString(escape)
			column += len(escape)
		default:
			// Grapheme clusters are measured as a whole, so combining marks
			// attach to the rune before them.
			g := uniseg.NewGraphemes(text[i:])
			g.Next()
			cluster := g.Str()
			buf.WriteString(cluster)
			for j := size; j < len(cluster); j++ {
				columns[i+j] = column
			}
			column += g.Width()
			size = len(cluster)
		}
		i += size
	}
	columns[len(text)] = column
	return buf.String(), columns
}
