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

package parser

import (
	goparser "go/parser"
	"io"
	"unicode/utf8"

	"github.com/bufbuild/grammarc/ast"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/source"
)

// Parse parses grammar source from the given reader, reporting any errors
// to handler. The returned AST is never nil, though it may be incomplete if
// errors were reported; the returned error is handler.Error().
func Parse(filename string, r io.Reader, handler *reporter.Handler) (*ast.GrammarNode, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseFile(source.NewFile(filename, string(data)), handler)
}

// ParseFile is like [Parse], but takes an already-loaded file.
func ParseFile(file *source.File, handler *reporter.Handler) (*ast.GrammarNode, error) {
	if !utf8.ValidString(file.Text()) {
		_ = handler.HandleErrorf(file.Span(0, 0), "file is not valid UTF-8")
		return &ast.GrammarNode{File: file}, handler.Error()
	}
	p := &parser{lx: newLexer(file), file: file, h: handler}
	return p.parseFile(), handler.Error()
}

// bailout is panicked with to unwind out of a rule after a syntax error.
type bailout struct{}

type parser struct {
	lx   *lexer
	file *source.File
	h    *reporter.Handler
}

func (p *parser) errorf(span source.Spanner, format string, args ...any) {
	_ = p.h.HandleErrorf(span, format, args...)
}

func (p *parser) fail(span source.Spanner, format string, args ...any) {
	p.errorf(span, format, args...)
	panic(bailout{})
}

// next returns the next token, skipping stray doc comments.
func (p *parser) next() token {
	for {
		tok := p.lx.next()
		if tok.kind != tokDoc {
			return tok
		}
	}
}

// peek returns the next token without consuming it, skipping stray doc
// comments.
func (p *parser) peek() token {
	pos := p.lx.pos
	tok := p.next()
	p.lx.pos = pos
	return tok
}

// peek2 returns the token after the next one.
func (p *parser) peek2() token {
	pos := p.lx.pos
	p.next()
	tok := p.next()
	p.lx.pos = pos
	return tok
}

func (p *parser) expectPunct(text, context string) token {
	tok := p.peek()
	if !tok.isPunct(text) {
		p.fail(tok.span, "expected '%s' %s, found %s", text, context, tok.describe())
	}
	return p.next()
}

func (p *parser) expectIdent(what string) ast.Ident {
	tok := p.peek()
	if tok.kind != tokIdent {
		p.fail(tok.span, "expected %s, found %s", what, tok.describe())
	}
	p.next()
	return ast.Ident{Name: tok.text, Pos: tok.span}
}

func (p *parser) parseFile() (g *ast.GrammarNode) {
	g = &ast.GrammarNode{File: p.file, Pos: p.file.Span(0, len(p.file.Text()))}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
		}
	}()

	kw := p.next()
	if !kw.isKeyword("grammar") {
		p.fail(kw.span, "expected 'grammar', found %s", kw.describe())
	}
	g.Name = p.expectIdent("grammar name")
	if p.peek().isPunct(":") {
		p.next()
		parent := p.expectIdent("parent grammar name")
		g.Parent = &parent
	}
	p.expectPunct("{", "to open grammar body")
	for p.peek().isKeyword("use") {
		g.Uses = append(g.Uses, p.parseUse())
	}

	var closing token
	for {
		tok := p.peek()
		if tok.kind == tokEOF {
			p.fail(tok.span, "expected '}' to close grammar %s, found end of file", g.Name.Name)
		}
		if tok.isPunct("}") {
			closing = p.next()
			break
		}
		if rule := p.parseRuleRecovering(); rule != nil {
			g.Rules = append(g.Rules, rule)
		}
		if p.h.ReporterError() != nil {
			return g
		}
	}
	g.Pos = p.file.Span(kw.span.Start, closing.span.End)

	if tok := p.next(); tok.kind != tokEOF {
		p.fail(tok.span, "unexpected %s after end of grammar", tok.describe())
	}
	return g
}

func (p *parser) parseUse() *ast.UseNode {
	kw := p.next()
	use := &ast.UseNode{}
	if p.peek().kind == tokIdent {
		alias := p.expectIdent("import alias")
		use.Alias = &alias
	}
	path := p.next()
	if path.kind != tokString {
		p.fail(path.span, "expected import path string, found %s", path.describe())
	}
	use.Path = path.value
	use.Pos = source.Join(kw.span, path.span)
	if p.peek().isPunct(";") {
		p.next()
	}
	return use
}

// parseRuleRecovering parses a rule. On a syntax error, it returns nil and
// skips ahead to something that looks like the start of the next rule.
func (p *parser) parseRuleRecovering() (rule *ast.RuleNode) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok || p.h.ReporterError() != nil {
				panic(r)
			}
			rule = nil
			p.synchronize()
		}
	}()
	return p.parseRule()
}

func (p *parser) atRuleStart() bool {
	tok := p.lx.peek()
	switch {
	case tok.kind == tokDoc, tok.isPunct("#["):
		return true
	case tok.isKeyword("pub"), tok.isKeyword("rule"):
		return p.peek2().kind == tokIdent
	}
	return false
}

func (p *parser) synchronize() {
	for {
		tok := p.lx.peek()
		switch {
		case tok.kind == tokEOF, tok.isPunct("}"), p.atRuleStart():
			return
		case tok.isPunct("->"):
			p.lx.next()
			if p.lx.peek().isPunct("{") {
				p.lx.next()
				p.lx.scanGoText("}")
				if p.lx.peek().isPunct("}") {
					p.lx.next()
				}
			}
			continue
		}
		p.lx.next()
	}
}

func (p *parser) parseRule() *ast.RuleNode {
	rule := new(ast.RuleNode)
	start := p.peek().span.Start
	for {
		tok := p.lx.peek()
		if tok.kind == tokDoc {
			start = min(start, tok.span.Start)
			p.lx.next()
			rule.Attributes = append(rule.Attributes, &ast.AttributeNode{
				Name:  ast.Ident{Name: "doc", Pos: tok.span},
				Value: tok.text,
				Pos:   tok.span,
			})
			continue
		}
		if tok.isPunct("#[") {
			start = min(start, tok.span.Start)
			rule.Attributes = append(rule.Attributes, p.parseAttribute())
			continue
		}
		break
	}

	tok := p.next()
	if tok.isKeyword("pub") {
		rule.Pub = true
		tok = p.next()
	}
	if !tok.isKeyword("rule") {
		p.fail(tok.span, "expected 'rule', found %s", tok.describe())
	}
	rule.Name = p.expectIdent("rule name")

	if p.peek().isPunct("[") {
		p.next()
		for {
			param := &ast.TypeParamNode{Name: p.expectIdent("type parameter name")}
			param.Constraint = p.parseGoType(",]", "type constraint")
			rule.TypeParams = append(rule.TypeParams, param)
			sep := p.next()
			if sep.isPunct("]") {
				break
			}
			if !sep.isPunct(",") {
				p.fail(sep.span, "expected ',' or ']' in type parameters, found %s", sep.describe())
			}
		}
	}

	if p.peek().isPunct("(") {
		p.next()
		for !p.peek().isPunct(")") {
			param := &ast.ParamNode{Name: p.expectIdent("parameter name")}
			if p.peek().isPunct(":") {
				p.next()
				param.Type = p.parseGoType(",)", "parameter type")
			}
			rule.Params = append(rule.Params, param)
			if p.peek().isPunct(",") {
				p.next()
				continue
			}
			if tok := p.peek(); !tok.isPunct(")") {
				p.fail(tok.span, "expected ',' or ')' in parameters, found %s", tok.describe())
			}
		}
		p.next()
	}

	p.expectPunct("->", "and a return type after rule name")
	rule.ReturnType = p.parseGoType("=", "return type")
	p.expectPunct("=", "after return type")

	for {
		rule.Variants = append(rule.Variants, p.parseVariant())
		if !p.peek().isPunct("|") {
			break
		}
		p.next()
	}
	rule.Pos = p.file.Span(start, rule.Variants[len(rule.Variants)-1].Pos.End)
	return rule
}

func (p *parser) parseAttribute() *ast.AttributeNode {
	open := p.next()
	attr := &ast.AttributeNode{Name: p.expectIdent("attribute name")}
	switch tok := p.peek(); {
	case tok.isPunct("="):
		p.next()
		value := p.next()
		if value.kind != tokString {
			p.fail(value.span, "expected string value for attribute %s, found %s", attr.Name.Name, value.describe())
		}
		attr.Value = value.value
	case tok.isPunct("("):
		p.next()
		span, ok := p.lx.scanGoText(")")
		if !ok {
			p.fail(span, "unbalanced delimiters in attribute %s", attr.Name.Name)
		}
		attr.Args = span.Text()
		p.expectPunct(")", "to close attribute arguments")
	}
	closing := p.expectPunct("]", "to close attribute")
	attr.Pos = source.Join(open.span, closing.span)
	return attr
}

func (p *parser) parseGoType(stop, what string) *ast.GoTypeNode {
	span, ok := p.lx.scanGoText(stop)
	if !ok {
		p.fail(span, "unbalanced delimiters in %s", what)
	}
	if span.Len() == 0 {
		tok := p.peek()
		p.fail(tok.span, "expected %s, found %s", what, tok.describe())
	}
	text := span.Text()
	if _, err := goparser.ParseExpr(text); err != nil {
		p.errorf(span, "invalid Go type %q in %s", text, what)
	}
	return &ast.GoTypeNode{Text: text, Pos: span}
}

func (p *parser) parseVariant() *ast.VariantNode {
	start := p.peek().span
	variant := &ast.VariantNode{
		Patterns: p.parseSequence(func(tok token) bool {
			return tok.isPunct("->") || tok.isPunct("|") || tok.isPunct("}") || p.atRuleStart()
		}),
	}
	if arrow := p.peek(); !arrow.isPunct("->") {
		p.fail(arrow.span, "missing action block: expected '->' after pattern, found %s", arrow.describe())
	}
	p.next()
	open := p.peek()
	if !open.isPunct("{") {
		p.fail(open.span, "missing action block: expected '{' after '->', found %s", open.describe())
	}
	p.next()
	code, ok := p.lx.scanGoText("}")
	if !ok {
		p.fail(open.span, "unterminated action block")
	}
	closing := p.next()
	if !closing.isPunct("}") {
		p.fail(closing.span, "unterminated action block")
	}
	if code.Len() == 0 {
		p.errorf(source.Join(open.span, closing.span), "empty action block")
		code = source.Join(open.span, closing.span)
		variant.Action = &ast.ActionNode{Pos: code}
	} else {
		variant.Action = &ast.ActionNode{Code: code.Text(), Pos: code}
	}
	variant.Pos = source.Join(start, closing.span)
	return variant
}

// parseSequence parses patterns until done reports true for the next token,
// or the next token is one that can never start a pattern.
func (p *parser) parseSequence(done func(token) bool) []ast.PatternNode {
	var patterns []ast.PatternNode
	for {
		tok := p.peek()
		if tok.kind == tokEOF || done(tok) {
			return patterns
		}
		if tok.isPunct("->") || tok.isPunct(")") || tok.isPunct("]") || tok.isPunct("}") {
			return patterns
		}
		patterns = append(patterns, p.parsePattern())
	}
}

func closedBy(closers ...string) func(token) bool {
	return func(tok token) bool {
		for _, c := range closers {
			if tok.isPunct(c) {
				return true
			}
		}
		return false
	}
}

func (p *parser) parsePattern() ast.PatternNode {
	atom := p.parseAtom()
	for {
		tok := p.peek()
		switch {
		case tok.isPunct("*"), tok.isPunct("+"), tok.isPunct("?"):
			p.next()
			atom = &ast.PostfixNode{Op: ast.PostfixOp(tok.text[0]), Inner: atom, OpPos: tok.span}
		case tok.isPunct("@"):
			p.next()
			atom = &ast.SpanBindNode{Inner: atom, Name: p.expectIdent("span binding name")}
		default:
			return atom
		}
	}
}

func (p *parser) parseAtom() ast.PatternNode {
	tok := p.peek()
	if tok.kind != tokIdent || !p.peek2().isPunct(":") {
		return p.parseUnboundAtom()
	}

	p.next()
	p.next()
	name := ast.Ident{Name: tok.text, Pos: tok.span}
	inner := p.peek()
	switch {
	case inner.isPunct("=>"):
		p.fail(inner.span, "cut operator cannot be bound")
	case inner.kind == tokString:
		p.fail(inner.span, "literals cannot be bound directly (wrap in a rule or group if needed)")
	case inner.isPunct("["):
		p.fail(inner.span, "bracketed groups cannot be bound directly")
	case inner.isPunct("{"):
		p.fail(inner.span, "braced groups cannot be bound directly")
	case inner.isPunct("("):
		p.fail(inner.span, "groups cannot be bound directly")
	case inner.kind == tokIdent && p.peek2().isPunct("("):
		switch inner.text {
		case "paren":
			p.fail(inner.span, "parenthesized groups cannot be bound directly")
		case "peek":
			p.fail(inner.span, "peek cannot be bound")
		case "not":
			p.fail(inner.span, "not cannot be bound")
		}
	}
	return &ast.BindNode{Name: name, Inner: p.parseUnboundAtom()}
}

func (p *parser) parseUnboundAtom() ast.PatternNode {
	tok := p.next()
	switch {
	case tok.isPunct("=>"):
		return &ast.CutNode{Pos: tok.span}
	case tok.kind == tokString:
		return &ast.LiteralNode{Value: tok.value, Pos: tok.span}
	case tok.isPunct("["):
		return p.parseDelimited(ast.Bracket, tok)
	case tok.isPunct("{"):
		return p.parseDelimited(ast.Brace, tok)
	case tok.isPunct("("):
		return p.parseGroup(tok)
	case tok.kind == tokIdent:
		if p.peek().isPunct("(") {
			switch tok.text {
			case "paren":
				p.next()
				return p.parseDelimited(ast.Paren, tok)
			case "recover":
				p.next()
				body := p.parseWrapped(tok, ",")
				p.expectPunct(",", "between recover body and sync pattern")
				sync := p.parseWrapped(tok, ")")
				closing := p.expectPunct(")", "to close recover")
				return &ast.RecoverNode{Body: body, Sync: sync, Pos: source.Join(tok.span, closing.span)}
			case "peek", "not":
				p.next()
				inner := p.parseWrapped(tok, ")")
				closing := p.expectPunct(")", "to close "+tok.text)
				span := source.Join(tok.span, closing.span)
				if tok.text == "peek" {
					return &ast.PeekNode{Inner: inner, Pos: span}
				}
				return &ast.NotNode{Inner: inner, Pos: span}
			}
		}
		return p.parseCall(tok)
	case tok.kind == tokError:
		p.fail(tok.span, "%s", tok.value)
	}
	p.fail(tok.span, "expected pattern, found %s", tok.describe())
	return nil
}

// parseWrapped parses the pattern sequence inside peek, not and recover. A
// sequence of more than one pattern becomes a single-alternative group.
func (p *parser) parseWrapped(kw token, closers ...string) ast.PatternNode {
	start := p.peek().span
	seq := p.parseSequence(closedBy(closers...))
	switch len(seq) {
	case 0:
		p.fail(start, "expected pattern inside %s(...)", kw.text)
		return nil
	case 1:
		return seq[0]
	default:
		return &ast.GroupNode{
			Alternatives: [][]ast.PatternNode{seq},
			Pos:          source.Join(seq[0], seq[len(seq)-1]),
		}
	}
}

func (p *parser) parseDelimited(kind ast.DelimKind, open token) ast.PatternNode {
	patterns := p.parseSequence(closedBy(kind.Close()))
	closing := p.peek()
	if !closing.isPunct(kind.Close()) {
		p.fail(closing.span, "mismatched delimiter: expected '%s' to close '%s' at %s, found %s",
			kind.Close(), kind.Open(), open.span, closing.describe())
	}
	p.next()
	return &ast.DelimitedNode{Kind: kind, Patterns: patterns, Pos: source.Join(open.span, closing.span)}
}

func (p *parser) parseGroup(open token) ast.PatternNode {
	group := new(ast.GroupNode)
	for {
		group.Alternatives = append(group.Alternatives, p.parseSequence(closedBy(")", "|")))
		tok := p.peek()
		if !tok.isPunct("|") && !tok.isPunct(")") {
			p.fail(tok.span, "mismatched delimiter: expected ')' to close '(' at %s, found %s", open.span, tok.describe())
		}
		p.next()
		if tok.isPunct("|") {
			continue
		}
		group.Pos = source.Join(open.span, tok.span)
		return group
	}
}

func (p *parser) parseCall(name token) ast.PatternNode {
	call := &ast.CallNode{Name: ast.Ident{Name: name.text, Pos: name.span}, Pos: name.span}
	// Arguments must follow the name immediately, so that `a (b | c)` is a
	// call followed by a group.
	if open := p.peek(); !open.isPunct("(") || open.span.Start != name.span.End {
		return call
	}
	p.next()
	for !p.peek().isPunct(")") {
		call.Args = append(call.Args, p.parseArg())
		if p.peek().isPunct(",") {
			p.next()
			continue
		}
		if tok := p.peek(); !tok.isPunct(")") {
			p.fail(tok.span, "expected ',' or ')' in arguments, found %s", tok.describe())
		}
	}
	closing := p.next()
	call.Pos = source.Join(name.span, closing.span)
	return call
}

func (p *parser) parseArg() *ast.ArgNode {
	tok := p.next()
	if tok.isPunct("-") {
		num := p.next()
		if (num.kind != tokInt && num.kind != tokFloat) || num.span.Start != tok.span.End {
			p.fail(num.span, "expected number after '-', found %s", num.describe())
		}
		kind := ast.ArgInt
		if num.kind == tokFloat {
			kind = ast.ArgFloat
		}
		return &ast.ArgNode{Kind: kind, Text: "-" + num.text, Pos: source.Join(tok.span, num.span)}
	}
	arg := &ast.ArgNode{Text: tok.text, Pos: tok.span}
	switch tok.kind {
	case tokIdent:
		arg.Kind = ast.ArgIdent
		if tok.text == "true" || tok.text == "false" {
			arg.Kind = ast.ArgBool
		}
	case tokString:
		arg.Kind = ast.ArgString
	case tokInt:
		arg.Kind = ast.ArgInt
	case tokFloat:
		arg.Kind = ast.ArgFloat
	default:
		p.fail(tok.span, "expected argument, found %s", tok.describe())
	}
	return arg
}
