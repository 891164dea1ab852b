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

package ast

import "github.com/bufbuild/grammarc/source"

// PatternNode is a node that can appear in a variant's pattern sequence.
//
// The set of implementations is closed; see the types in this file.
type PatternNode interface {
	Node
	patternNode()
}

// CutNode is the `=>` commit marker.
type CutNode struct {
	Pos source.Span
}

// LiteralNode is a quoted string to match exactly.
type LiteralNode struct {
	// Value is the unquoted text.
	Value string
	Pos   source.Span
}

// CallNode is a reference to a rule, parameter or built-in, with optional
// arguments.
type CallNode struct {
	Name Ident
	Args []*ArgNode
	Pos  source.Span
}

// ArgKind is the lexical kind of a rule call argument.
type ArgKind int8

const (
	ArgIdent ArgKind = iota + 1
	ArgString
	ArgInt
	ArgFloat
	ArgBool
)

// String implements [fmt.Stringer].
func (k ArgKind) String() string {
	switch k {
	case ArgIdent:
		return "identifier"
	case ArgString:
		return "string"
	case ArgInt:
		return "integer"
	case ArgFloat:
		return "float"
	case ArgBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ArgNode is one argument of a rule call.
type ArgNode struct {
	Kind ArgKind
	// Text is the argument as written, which is also valid Go.
	Text string
	Pos  source.Span
}

// Span implements [Node].
func (a *ArgNode) Span() source.Span { return a.Pos }

// BindNode is `name:atom`.
type BindNode struct {
	Name  Ident
	Inner PatternNode
}

// GroupNode is a parenthesized list of alternatives.
type GroupNode struct {
	Alternatives [][]PatternNode
	Pos          source.Span
}

// DelimKind is the kind of a delimited pattern.
type DelimKind int8

const (
	Paren DelimKind = iota + 1
	Bracket
	Brace
)

// Open returns the opening delimiter text.
func (k DelimKind) Open() string {
	switch k {
	case Paren:
		return "("
	case Bracket:
		return "["
	case Brace:
		return "{"
	default:
		return ""
	}
}

// Close returns the closing delimiter text.
func (k DelimKind) Close() string {
	switch k {
	case Paren:
		return ")"
	case Bracket:
		return "]"
	case Brace:
		return "}"
	default:
		return ""
	}
}

// DelimitedNode is `paren(...)`, `[...]` or `{...}`.
type DelimitedNode struct {
	Kind     DelimKind
	Patterns []PatternNode
	Pos      source.Span
}

// PostfixOp is a repetition operator.
type PostfixOp byte

const (
	OpStar     PostfixOp = '*'
	OpPlus     PostfixOp = '+'
	OpOptional PostfixOp = '?'
)

// PostfixNode is an atom followed by `*`, `+` or `?`.
type PostfixNode struct {
	Op    PostfixOp
	Inner PatternNode
	OpPos source.Span
}

// SpanBindNode is `pattern @ name`.
type SpanBindNode struct {
	Inner PatternNode
	Name  Ident
}

// RecoverNode is `recover(body, sync)`.
type RecoverNode struct {
	Body, Sync PatternNode
	Pos        source.Span
}

// PeekNode is `peek(pattern)`.
type PeekNode struct {
	Inner PatternNode
	Pos   source.Span
}

// NotNode is `not(pattern)`.
type NotNode struct {
	Inner PatternNode
	Pos   source.Span
}

func (n *CutNode) Span() source.Span       { return n.Pos }
func (n *LiteralNode) Span() source.Span   { return n.Pos }
func (n *CallNode) Span() source.Span      { return n.Pos }
func (n *BindNode) Span() source.Span      { return source.Join(n.Name, n.Inner) }
func (n *GroupNode) Span() source.Span     { return n.Pos }
func (n *DelimitedNode) Span() source.Span { return n.Pos }
func (n *PostfixNode) Span() source.Span   { return source.Join(n.Inner, n.OpPos) }
func (n *SpanBindNode) Span() source.Span  { return source.Join(n.Inner, n.Name) }
func (n *RecoverNode) Span() source.Span   { return n.Pos }
func (n *PeekNode) Span() source.Span      { return n.Pos }
func (n *NotNode) Span() source.Span       { return n.Pos }

func (*CutNode) patternNode()       {}
func (*LiteralNode) patternNode()   {}
func (*CallNode) patternNode()      {}
func (*BindNode) patternNode()      {}
func (*GroupNode) patternNode()     {}
func (*DelimitedNode) patternNode() {}
func (*PostfixNode) patternNode()   {}
func (*SpanBindNode) patternNode()  {}
func (*RecoverNode) patternNode()   {}
func (*PeekNode) patternNode()      {}
func (*NotNode) patternNode()       {}
