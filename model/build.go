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
	"unicode"
	"unicode/utf8"

	"github.com/bufbuild/grammarc/ast"
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/source"
)

// Options configure [Build].
type Options struct {
	// Parent is the already-built model of the grammar named as the parent
	// in the source. It must be set if and only if the grammar has a parent.
	Parent *Grammar
	// Builtins is the backend registry used to resolve calls that name
	// neither a parameter nor a rule. If nil, no builtins are known.
	Builtins *builtins.Registry
	// RuntimePackage is the package name of the runtime in Go type
	// expressions, "rt" if empty.
	RuntimePackage string
}

// Build converts a syntax tree into a semantic model. Problems are reported
// to handler. Build never modifies node.
func Build(node *ast.GrammarNode, opts Options, handler *reporter.Handler) (*Grammar, error) {
	if opts.RuntimePackage == "" {
		opts.RuntimePackage = "rt"
	}
	g := &Grammar{
		Name:        node.Name.Name,
		File:        node.File,
		Pos:         node.Pos,
		Runtime:     opts.RuntimePackage,
		rulesByName: make(map[string]*Rule, len(node.Rules)),
	}
	if node.Parent != nil {
		g.ParentName = node.Parent.Name
		switch {
		case opts.Parent == nil:
			if err := handler.HandleErrorf(node.Parent.Pos, "parent grammar '%s' not found", node.Parent.Name); err != nil {
				return nil, err
			}
		case opts.Parent.Name != node.Parent.Name:
			if err := handler.HandleErrorf(node.Parent.Pos, "parent grammar '%s' does not match provided grammar '%s'",
				node.Parent.Name, opts.Parent.Name); err != nil {
				return nil, err
			}
		default:
			g.Parent = opts.Parent
		}
	}
	for _, use := range node.Uses {
		u := &Use{Path: use.Path, Pos: use.Pos}
		if use.Alias != nil {
			u.Alias = use.Alias.Name
		}
		g.Uses = append(g.Uses, u)
	}

	// Declarations first, so that calls can be resolved in any order.
	for _, rn := range node.Rules {
		r := declareRule(rn)
		g.Rules = append(g.Rules, r)
		if _, ok := g.rulesByName[r.Name]; !ok {
			g.rulesByName[r.Name] = r
		}
	}
	for i, rn := range node.Rules {
		b := &builder{g: g, rule: g.Rules[i], opts: opts}
		for _, vn := range rn.Variants {
			b.rule.Variants = append(b.rule.Variants, b.variant(vn))
		}
	}
	return g, handler.Error()
}

func declareRule(rn *ast.RuleNode) *Rule {
	r := &Rule{
		Name:       rn.Name.Name,
		NamePos:    rn.Name.Pos,
		Pub:        rn.Pub,
		ReturnType: rn.ReturnType.Text,
		ReturnPos:  rn.ReturnType.Span(),
		Pos:        rn.Pos,
	}
	for _, tp := range rn.TypeParams {
		r.TypeParams = append(r.TypeParams, &TypeParam{
			Name:       tp.Name.Name,
			Constraint: tp.Constraint.Text,
			Pos:        tp.Span(),
		})
	}
	for _, p := range rn.Params {
		param := &Param{Name: p.Name.Name, Pos: p.Span()}
		if p.Type != nil {
			param.Type = p.Type.Text
		}
		r.Params = append(r.Params, param)
	}
	for _, a := range rn.Attributes {
		r.Attributes = append(r.Attributes, &Attribute{
			Name:  a.Name.Name,
			Value: a.Value,
			Args:  a.Args,
			Pos:   a.Pos,
		})
	}
	return r
}

type builder struct {
	g    *Grammar
	rule *Rule
	opts Options
}

func (b *builder) variant(vn *ast.VariantNode) *Variant {
	return &Variant{
		Patterns: b.sequence(vn.Patterns, vn.Pos),
		Action:   Action{Code: vn.Action.Code, Pos: vn.Action.Pos},
		Pos:      vn.Pos,
	}
}

// sequence converts a list of patterns, inlining transparent groups.
func (b *builder) sequence(nodes []ast.PatternNode, pos source.Span) *Sequence {
	seq := &Sequence{Pos: pos}
	if len(nodes) > 0 {
		seq.Pos = source.Join(nodes[0], nodes[len(nodes)-1])
	}
	for _, n := range nodes {
		if group, ok := n.(*ast.GroupNode); ok && len(group.Alternatives) == 1 && !hasTopLevelCut(group.Alternatives[0]) {
			seq.Items = append(seq.Items, b.sequence(group.Alternatives[0], group.Pos).Items...)
			continue
		}
		seq.Items = append(seq.Items, b.pattern(n))
	}
	return seq
}

func hasTopLevelCut(nodes []ast.PatternNode) bool {
	for _, n := range nodes {
		if _, ok := n.(*ast.CutNode); ok {
			return true
		}
	}
	return false
}

func (b *builder) pattern(n ast.PatternNode) Pattern {
	switch n := n.(type) {
	case *ast.CutNode:
		return &Cut{Pos: n.Pos}
	case *ast.LiteralNode:
		return NewLiteral(n.Value, n.Pos)
	case *ast.CallNode:
		return b.call(n)
	case *ast.BindNode:
		inner := b.pattern(n.Inner)
		return &Binding{
			Name:    n.Name.Name,
			NamePos: n.Name.Pos,
			Inner:   inner,
			Type:    TypeOf(inner),
			Pos:     n.Span(),
		}
	case *ast.GroupNode:
		if len(n.Alternatives) == 1 {
			return &Group{Inner: b.sequence(n.Alternatives[0], n.Pos), Pos: n.Pos}
		}
		alt := &Alternation{Pos: n.Pos}
		for _, a := range n.Alternatives {
			alt.Alternatives = append(alt.Alternatives, b.sequence(a, n.Pos))
		}
		return alt
	case *ast.DelimitedNode:
		return &Delimited{Kind: n.Kind, Inner: b.sequence(n.Patterns, n.Pos), Pos: n.Pos}
	case *ast.PostfixNode:
		inner := b.pattern(n.Inner)
		switch n.Op {
		case ast.OpStar:
			return &Repeat{Inner: inner, Pos: n.Span()}
		case ast.OpPlus:
			return &RepeatPlus{Inner: inner, Pos: n.Span()}
		case ast.OpOptional:
			return &Optional{Inner: inner, Pos: n.Span()}
		default:
			panic("internal error: unknown postfix operator")
		}
	case *ast.SpanBindNode:
		return &SpanBinding{Name: n.Name.Name, NamePos: n.Name.Pos, Inner: b.pattern(n.Inner), Pos: n.Span()}
	case *ast.RecoverNode:
		body := b.pattern(n.Body)
		// Only a rule call produces a value worth keeping. Any other body
		// recovers to a unit.
		bodyType := UnitType
		if call, ok := body.(*RuleCall); ok {
			bodyType = call.Type
		}
		return &Recover{Body: body, Sync: b.pattern(n.Sync), Type: OptionalOf(bodyType), Pos: n.Pos}
	case *ast.PeekNode:
		return &Peek{Inner: b.pattern(n.Inner), Pos: n.Pos}
	case *ast.NotNode:
		return &Not{Inner: b.pattern(n.Inner), Pos: n.Pos}
	default:
		panic("internal error: unknown pattern node")
	}
}

func (b *builder) call(n *ast.CallNode) *RuleCall {
	call := &RuleCall{
		Name:       n.Name.Name,
		Resolution: b.resolve(n.Name.Name),
		Pos:        n.Pos,
	}
	for _, an := range n.Args {
		arg := &Arg{Kind: an.Kind, Text: an.Text, Pos: an.Pos}
		if an.Kind == ast.ArgIdent {
			arg.Resolution = b.resolve(an.Text)
		}
		call.Args = append(call.Args, arg)
	}
	call.Type = b.callType(call)
	return call
}

// resolve finds the target of a call, checking the enclosing rule's
// parameters, then the grammar's rules, then inherited rules, then builtins.
func (b *builder) resolve(name string) Resolution {
	if p := b.rule.Param(name); p != nil {
		return Resolution{Kind: ResolvedParam, Param: p}
	}
	if r, owner := b.g.Resolve(name); r != nil {
		kind := ResolvedLocal
		if owner != b.g {
			kind = ResolvedInherited
		}
		return Resolution{Kind: kind, Rule: r, Owner: owner}
	}
	if bi, ok := b.opts.Builtins.Lookup(name); ok {
		return Resolution{Kind: ResolvedBuiltin, Builtin: bi}
	}
	return Resolution{Kind: Unresolved}
}

func (b *builder) callType(call *RuleCall) *Type {
	res := call.Resolution
	switch res.Kind {
	case ResolvedParam:
		return b.paramType(res.Param)
	case ResolvedLocal, ResolvedInherited:
		return b.ruleType(res.Rule, call.Args)
	case ResolvedBuiltin:
		t := NamedType(res.Builtin.Type)
		t.NotSpannable = !res.Builtin.Spannable
		return t
	default:
		return AnyType
	}
}

// paramType is the type of the value produced by calling a parameter.
func (b *builder) paramType(p *Param) *Type {
	if p.Type == "" {
		return AnyType
	}
	if elem, ok := RuleElem(p.Type, b.opts.RuntimePackage); ok {
		return NamedType(elem)
	}
	return AnyType
}

// ruleType is the result type of calling r with args. Type parameters of a
// generic rule are inferred from arguments passed to rule-typed parameters.
func (b *builder) ruleType(r *Rule, args []*Arg) *Type {
	if !r.IsGeneric() {
		return NamedType(r.ReturnType)
	}
	inferred := make(map[string]string, len(r.TypeParams))
	for i, p := range r.Params {
		if i >= len(args) || args[i].Kind != ast.ArgIdent {
			continue
		}
		elem, ok := RuleElem(p.Type, b.opts.RuntimePackage)
		if !ok || !isTypeParam(r, elem) {
			continue
		}
		argType := b.argType(args[i])
		if argType == nil || argType.Kind == KindAny {
			continue
		}
		inferred[elem] = argType.GoType(b.opts.RuntimePackage)
	}
	if len(inferred) != len(r.TypeParams) {
		return AnyType
	}
	return NamedType(Substitute(r.ReturnType, inferred))
}

func (b *builder) argType(arg *Arg) *Type {
	switch arg.Resolution.Kind {
	case ResolvedParam:
		return b.paramType(arg.Resolution.Param)
	case ResolvedLocal, ResolvedInherited:
		if arg.Resolution.Rule.IsGeneric() {
			return nil
		}
		return NamedType(arg.Resolution.Rule.ReturnType)
	case ResolvedBuiltin:
		return NamedType(arg.Resolution.Builtin.Type)
	default:
		return nil
	}
}

func isTypeParam(r *Rule, name string) bool {
	for _, tp := range r.TypeParams {
		if tp.Name == name {
			return true
		}
	}
	return false
}

// NewLiteral returns a literal pattern for text, split into its pieces.
func NewLiteral(text string, pos source.Span) *Literal {
	lit := &Literal{Text: text, Pieces: LiteralPieces(text), Pos: pos}
	if n := len(lit.Pieces); n > 0 {
		r, _ := utf8.DecodeRuneInString(lit.Pieces[n-1])
		lit.Keyword = isIdentStart(r)
	}
	return lit
}

// LiteralPieces splits a literal into runs of identifier characters and
// single punctuation characters. Whitespace separates pieces and is dropped.
func LiteralPieces(text string) []string {
	var pieces []string
	start := -1
	for i, r := range text {
		if isIdentPart(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			pieces = append(pieces, text[start:i])
			start = -1
		}
		if !unicode.IsSpace(r) {
			pieces = append(pieces, string(r))
		}
	}
	if start >= 0 {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// TypeOf returns the static type of a pattern's result.
func TypeOf(p Pattern) *Type {
	switch p := p.(type) {
	case *Literal, *Sequence, *Alternation, *Group, *Delimited, *Cut, *Peek, *Not:
		return UnitType
	case *RuleCall:
		if p.Type == nil {
			return AnyType
		}
		return p.Type
	case *Optional:
		return OptionalOf(TypeOf(p.Inner))
	case *Repeat:
		return SliceOf(TypeOf(p.Inner))
	case *RepeatPlus:
		return SliceOf(TypeOf(p.Inner))
	case *Binding:
		return TypeOf(p.Inner)
	case *SpanBinding:
		return SpanType
	case *Recover:
		return p.Type
	default:
		panic("internal error: unknown pattern kind")
	}
}
