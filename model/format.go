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

package model

import (
	"strconv"
	"strings"
)

// Format renders p in grammar syntax. Structurally identical patterns render
// identically, regardless of how they were written.
func Format(p Pattern) string {
	var sb strings.Builder
	format(&sb, p)
	return sb.String()
}

func format(sb *strings.Builder, p Pattern) {
	switch p := p.(type) {
	case *Literal:
		sb.WriteString(strconv.Quote(p.Text))
	case *RuleCall:
		sb.WriteString(p.Name)
		if len(p.Args) > 0 {
			sb.WriteByte('(')
			for i, arg := range p.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(arg.Text)
			}
			sb.WriteByte(')')
		}
	case *Sequence:
		formatItems(sb, p.Items)
	case *Alternation:
		sb.WriteByte('(')
		for i, alt := range p.Alternatives {
			if i > 0 {
				sb.WriteString(" | ")
			}
			formatItems(sb, alt.Items)
		}
		sb.WriteByte(')')
	case *Optional:
		format(sb, p.Inner)
		sb.WriteByte('?')
	case *Repeat:
		format(sb, p.Inner)
		sb.WriteByte('*')
	case *RepeatPlus:
		format(sb, p.Inner)
		sb.WriteByte('+')
	case *Group:
		sb.WriteByte('(')
		formatItems(sb, p.Inner.Items)
		sb.WriteByte(')')
	case *Delimited:
		open, closing := p.Kind.Open(), p.Kind.Close()
		if open == "(" {
			open = "paren("
		}
		sb.WriteString(open)
		formatItems(sb, p.Inner.Items)
		sb.WriteString(closing)
	case *Binding:
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		format(sb, p.Inner)
	case *SpanBinding:
		format(sb, p.Inner)
		sb.WriteString(" @ ")
		sb.WriteString(p.Name)
	case *Cut:
		sb.WriteString("=>")
	case *Peek:
		sb.WriteString("peek(")
		format(sb, p.Inner)
		sb.WriteByte(')')
	case *Not:
		sb.WriteString("not(")
		format(sb, p.Inner)
		sb.WriteByte(')')
	case *Recover:
		sb.WriteString("recover(")
		format(sb, p.Body)
		sb.WriteString(", ")
		format(sb, p.Sync)
		sb.WriteByte(')')
	default:
		panic("internal error: unknown pattern kind")
	}
}

func formatItems(sb *strings.Builder, items []Pattern) {
	for i, item := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		format(sb, item)
	}
}
