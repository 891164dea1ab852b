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
	"github.com/bufbuild/grammarc/ast"
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/source"
)

// Pattern is a node in a variant's pattern tree. The set of implementations
// is closed: it is one of *Literal, *RuleCall, *Sequence, *Alternation,
// *Optional, *Repeat, *RepeatPlus, *Group, *Delimited, *Binding,
// *SpanBinding, *Cut, *Peek, *Not or *Recover.
type Pattern interface {
	source.Spanner
	pattern()
}

// Literal matches exact text.
type Literal struct {
	Text string
	// Pieces are the tokens the literal is made of: runs of identifier
	// characters and single punctuation characters. The pieces must appear
	// in the input with nothing in between.
	Pieces []string
	// Keyword is set when the literal ends in an identifier piece, in which
	// case a match also requires a word boundary after it.
	Keyword bool
	Pos     source.Span
}

// RuleCall invokes a rule, rule parameter or builtin.
type RuleCall struct {
	Name       string
	Args       []*Arg
	Resolution Resolution
	// Type is the static type of the call's result. For calls to generic
	// rules, type parameters inferred from the arguments are substituted.
	Type *Type
	Pos  source.Span
}

// Arg is one argument of a rule call.
type Arg struct {
	Kind ast.ArgKind
	// Text is the argument as written. For strings, it is the quoted form.
	Text string
	// Resolution is set for identifier arguments that name a rule,
	// parameter or builtin.
	Resolution Resolution
	Pos        source.Span
}

// Span implements [source.Spanner].
func (a *Arg) Span() source.Span { return a.Pos }

// Sequence matches its items in order.
type Sequence struct {
	Items []Pattern
	Pos   source.Span
}

// Alternation matches the first of its alternatives that succeeds.
type Alternation struct {
	Alternatives []*Sequence
	Pos          source.Span
}

// Optional matches its inner pattern zero or one times.
type Optional struct {
	Inner Pattern
	Pos   source.Span
}

// Repeat matches its inner pattern zero or more times.
type Repeat struct {
	Inner Pattern
	Pos   source.Span
}

// RepeatPlus matches its inner pattern one or more times.
type RepeatPlus struct {
	Inner Pattern
	Pos   source.Span
}

// Group is a parenthesized sequence that could not be inlined into its
// parent, because it is the operand of a postfix operator or contains a cut.
type Group struct {
	Inner *Sequence
	Pos   source.Span
}

// Delimited matches an open delimiter, its inner sequence and the matching
// close delimiter.
type Delimited struct {
	Kind  ast.DelimKind
	Inner *Sequence
	Pos   source.Span
}

// Binding binds the result of its inner pattern to a name.
type Binding struct {
	Name    string
	NamePos source.Span
	Inner   Pattern
	// Type is the static type of the bound value.
	Type *Type
	Pos  source.Span
}

// SpanBinding binds the source range consumed by its inner pattern to a name.
type SpanBinding struct {
	Name    string
	NamePos source.Span
	Inner   Pattern
	Pos     source.Span
}

// Cut commits the enclosing alternative once everything before it matched.
type Cut struct {
	Pos source.Span
}

// Peek matches its inner pattern without consuming input.
type Peek struct {
	Inner Pattern
	Pos   source.Span
}

// Not succeeds, without consuming input, when its inner pattern fails.
type Not struct {
	Inner Pattern
	Pos   source.Span
}

// Recover matches Body. If Body fails, the error is recorded and input is
// skipped until Sync would match.
type Recover struct {
	Body Pattern
	Sync Pattern
	// Type is the optional of Body's type if Body is a rule call, and an
	// optional unit otherwise.
	Type *Type
	Pos  source.Span
}

func (p *Literal) Span() source.Span     { return p.Pos }
func (p *RuleCall) Span() source.Span    { return p.Pos }
func (p *Sequence) Span() source.Span    { return p.Pos }
func (p *Alternation) Span() source.Span { return p.Pos }
func (p *Optional) Span() source.Span    { return p.Pos }
func (p *Repeat) Span() source.Span      { return p.Pos }
func (p *RepeatPlus) Span() source.Span  { return p.Pos }
func (p *Group) Span() source.Span       { return p.Pos }
func (p *Delimited) Span() source.Span   { return p.Pos }
func (p *Binding) Span() source.Span     { return p.Pos }
func (p *SpanBinding) Span() source.Span { return p.Pos }
func (p *Cut) Span() source.Span         { return p.Pos }
func (p *Peek) Span() source.Span        { return p.Pos }
func (p *Not) Span() source.Span         { return p.Pos }
func (p *Recover) Span() source.Span     { return p.Pos }

func (*Literal) pattern()     {}
func (*RuleCall) pattern()    {}
func (*Sequence) pattern()    {}
func (*Alternation) pattern() {}
func (*Optional) pattern()    {}
func (*Repeat) pattern()      {}
func (*RepeatPlus) pattern()  {}
func (*Group) pattern()       {}
func (*Delimited) pattern()   {}
func (*Binding) pattern()     {}
func (*SpanBinding) pattern() {}
func (*Cut) pattern()         {}
func (*Peek) pattern()        {}
func (*Not) pattern()         {}
func (*Recover) pattern()     {}

// ResolutionKind says what a rule call refers to.
type ResolutionKind int8

const (
	// Unresolved calls name nothing known. The validator reports them.
	Unresolved ResolutionKind = iota
	// ResolvedParam calls a parameter of the enclosing rule.
	ResolvedParam
	// ResolvedLocal calls a rule of the same grammar.
	ResolvedLocal
	// ResolvedInherited calls a rule of an ancestor grammar.
	ResolvedInherited
	// ResolvedBuiltin calls a backend builtin.
	ResolvedBuiltin
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolvedParam:
		return "param"
	case ResolvedLocal:
		return "local"
	case ResolvedInherited:
		return "inherited"
	case ResolvedBuiltin:
		return "builtin"
	default:
		return "unresolved"
	}
}

// Resolution is the target of a rule call.
type Resolution struct {
	Kind ResolutionKind
	// Rule is the called rule, for ResolvedLocal and ResolvedInherited.
	Rule *Rule
	// Owner is the grammar that defines Rule.
	Owner *Grammar
	// Param is the called parameter, for ResolvedParam.
	Param *Param
	// Builtin is the called builtin, for ResolvedBuiltin.
	Builtin builtins.Builtin
}

// Arity returns the number of arguments the call target accepts.
func (r Resolution) Arity() int {
	if r.Kind == ResolvedLocal || r.Kind == ResolvedInherited {
		return len(r.Rule.Params)
	}
	return 0
}

// Walk calls fn for p and each pattern nested in it, in depth-first order.
// If fn returns false, the children of that pattern are skipped.
func Walk(p Pattern, fn func(Pattern) bool) {
	if !fn(p) {
		return
	}
	switch p := p.(type) {
	case *Literal, *RuleCall, *Cut:
	case *Sequence:
		for _, item := range p.Items {
			Walk(item, fn)
		}
	case *Alternation:
		for _, alt := range p.Alternatives {
			Walk(alt, fn)
		}
	case *Optional:
		Walk(p.Inner, fn)
	case *Repeat:
		Walk(p.Inner, fn)
	case *RepeatPlus:
		Walk(p.Inner, fn)
	case *Group:
		Walk(p.Inner, fn)
	case *Delimited:
		Walk(p.Inner, fn)
	case *Binding:
		Walk(p.Inner, fn)
	case *SpanBinding:
		Walk(p.Inner, fn)
	case *Peek:
		Walk(p.Inner, fn)
	case *Not:
		Walk(p.Inner, fn)
	case *Recover:
		Walk(p.Body, fn)
		Walk(p.Sync, fn)
	default:
		panic("internal error: unknown pattern kind")
	}
}
