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

package codegen

import (
	"fmt"
	"go/parser"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/tidwall/btree"
	"github.com/tliron/commonlog"

	"github.com/bufbuild/grammarc/analysis"
	"github.com/bufbuild/grammarc/ast"
	"github.com/bufbuild/grammarc/model"
)

// DefaultRuntime is the import path of the runtime package used by
// generated code unless [Options.Runtime] says otherwise.
const DefaultRuntime = "github.com/bufbuild/grammarc/rt"

var log = commonlog.GetLogger("grammarc.codegen")

// Options configure [Lower].
type Options struct {
	// Package is the Go package name of the generated file. A grammar calls
	// its parent's functions directly, so it must share the parent's
	// package. It defaults to the parent's package, or the lower-cased
	// grammar name for a grammar with no parent.
	Package string
	// Runtime is the import path of the runtime package.
	Runtime string
	// Parent is the lowered parent grammar. It must be set if the grammar
	// has a parent.
	Parent *Program
	// BuildID is stamped into the generated file if not empty.
	BuildID string
}

// FuncName returns the name of the parse function generated for a rule.
func FuncName(grammar, rule string) string {
	return "parse" + strcase.ToCamel(grammar) + strcase.ToCamel(rule)
}

// EntryName returns the name of the exported wrapper generated for a rule.
func EntryName(grammar, rule string) string {
	return "Parse" + strcase.ToCamel(grammar) + strcase.ToCamel(rule)
}

// DefaultPackage returns the Go package name used for g when none is
// configured: the lower-cased name of its root ancestor.
func DefaultPackage(g *model.Grammar) string {
	root := g
	for root.Parent != nil {
		root = root.Parent
	}
	return strings.ToLower(root.Name)
}

// Lower builds the program for g from the facts computed by
// [analysis.Analyze]. The grammar must have passed validation and analysis;
// anything that should have been rejected earlier causes a panic.
func Lower(g *model.Grammar, facts *analysis.Facts, opts Options) *Program {
	if (g.Parent == nil) != (opts.Parent == nil) {
		panic(fmt.Sprintf("internal error: grammar %s lowered with wrong parent program", g.Name))
	}
	if opts.Package == "" {
		opts.Package = DefaultPackage(g)
	}
	if opts.Parent != nil && opts.Package != opts.Parent.Package {
		panic(fmt.Sprintf("internal error: grammar %s lowered into package %s, but its parent %s is in package %s",
			g.Name, opts.Package, opts.Parent.Grammar, opts.Parent.Package))
	}
	if opts.Runtime == "" {
		opts.Runtime = DefaultRuntime
	}
	prog := &Program{
		Grammar: g.Name,
		Parent:  opts.Parent,
		Package: opts.Package,
		Runtime: opts.Runtime,
		BuildID: opts.BuildID,
	}
	l := &lowerer{g: g, facts: facts}

	var keywords btree.Set[string]
	seenImports := map[string]bool{}
	for anc := range g.Lineage() {
		analysis.Keywords(anc).Scan(func(kw string) bool {
			keywords.Insert(kw)
			return true
		})
		for _, use := range anc.Uses {
			if !seenImports[use.Path] {
				seenImports[use.Path] = true
				prog.Imports = append(prog.Imports, Import{Alias: use.Alias, Path: use.Path})
			}
		}
	}
	prog.Keywords = keywords.Keys()
	if ws, owner := g.Resolve("ws"); ws != nil {
		prog.Skipper = FuncName(owner.Name, ws.Name)
	}

	for _, r := range g.Rules {
		if g.Rule(r.Name) != r {
			// A duplicate definition; validation has already rejected it.
			continue
		}
		prog.Rules = append(prog.Rules, l.rule(r))
	}
	log.Debugf("lowered grammar %s: %d rules, %d keywords", g.Name, len(prog.Rules), len(prog.Keywords))
	return prog
}

type lowerer struct {
	g     *model.Grammar
	facts *analysis.Facts
}

func (l *lowerer) rule(r *model.Rule) *Rule {
	rf := l.facts.Rule(r)
	if rf == nil {
		panic(fmt.Sprintf("internal error: no facts for rule %s", r.Name))
	}
	out := &Rule{
		Name:       r.Name,
		Func:       FuncName(l.g.Name, r.Name),
		Doc:        r.Doc(),
		ReturnType: r.ReturnType,
	}
	if r.Pub || r.Name == "main" {
		out.Entry = EntryName(l.g.Name, r.Name)
	}
	for _, tp := range r.TypeParams {
		out.TypeParams = append(out.TypeParams, TypeParam{Name: tp.Name, Constraint: tp.Constraint})
	}
	for _, p := range r.Params {
		out.Params = append(out.Params, l.param(p))
	}
	for i, v := range r.Variants {
		vf := rf.Variants[i]
		if vf.Recursive {
			out.Tails = append(out.Tails, l.arm(i, v, vf.Tail, vf.LHS))
		} else {
			out.Arms = append(out.Arms, l.arm(i, v, v.Patterns.Items, ""))
		}
	}
	if rf.Classification.LeftRecursive() {
		log.Debugf("rule %s.%s: %d base arms, %d tails", l.g.Name, r.Name, len(out.Arms), len(out.Tails))
	}
	return out
}

func (l *lowerer) param(p *model.Param) Param {
	if p.Type == "" {
		return Param{Name: p.Name, Type: "rt.Rule[any]", Rule: true, Untyped: true}
	}
	_, isRule := model.RuleElem(p.Type, l.g.Runtime)
	return Param{Name: p.Name, Type: p.Type, Rule: isRule}
}

func (l *lowerer) arm(index int, v *model.Variant, items []model.Pattern, lhs string) *Arm {
	code := strings.TrimSpace(v.Action.Code)
	_, err := parser.ParseExpr(code)
	return &Arm{
		Variant: index,
		LHS:     lhs,
		Block:   l.block(items, 0, CollectNone),
		Action:  Action{Code: code, Expr: err == nil},
	}
}

func (l *lowerer) block(items []model.Pattern, level int, collect Collect) *Block {
	b := &Block{Level: level, Collect: collect}
	exports, _ := analysis.Bindings(items)
	for _, e := range exports {
		b.Vars = append(b.Vars, Var{Name: e.Name, Type: e.Type.GoType(l.g.Runtime)})
	}
	for _, item := range items {
		b.Steps = append(b.Steps, l.steps(item, level)...)
	}
	return b
}

// itemsOf returns the sequence a nested block is built from.
func itemsOf(p model.Pattern) []model.Pattern {
	switch p := p.(type) {
	case *model.Sequence:
		return p.Items
	case *model.Group:
		return p.Inner.Items
	default:
		return []model.Pattern{p}
	}
}

// steps lowers p into steps that run in a block at the given level.
func (l *lowerer) steps(p model.Pattern, level int) []*Step {
	switch p := p.(type) {
	case *model.Literal:
		return []*Step{{Kind: StepLit, Text: p.Text, Keyword: p.Keyword}}
	case *model.RuleCall:
		return []*Step{{Kind: StepCall, Call: l.call(p)}}
	case *model.Cut:
		return []*Step{{Kind: StepCommit}}
	case *model.Sequence:
		var out []*Step
		for _, item := range p.Items {
			out = append(out, l.steps(item, level)...)
		}
		return out
	case *model.Group:
		return []*Step{{Kind: StepChoice, Arms: []*Block{l.block(p.Inner.Items, level+1, CollectAssign)}}}
	case *model.Alternation:
		step := &Step{Kind: StepChoice}
		for _, alt := range p.Alternatives {
			step.Arms = append(step.Arms, l.block(alt.Items, level+1, CollectAssign))
		}
		return []*Step{step}
	case *model.Delimited:
		step := &Step{Kind: StepDelimited, Open: p.Kind.Open(), Close: p.Kind.Close()}
		for _, item := range p.Inner.Items {
			step.Inner = append(step.Inner, l.steps(item, level)...)
		}
		return []*Step{step}
	case *model.Optional:
		return []*Step{{Kind: StepOptional, Body: l.block(itemsOf(p.Inner), level+1, CollectAddress)}}
	case *model.Repeat:
		return []*Step{{Kind: StepRepeat, Body: l.block(itemsOf(p.Inner), level+1, CollectAppend)}}
	case *model.RepeatPlus:
		return []*Step{{Kind: StepRepeat, Min: 1, Body: l.block(itemsOf(p.Inner), level+1, CollectAppend)}}
	case *model.Binding:
		switch inner := p.Inner.(type) {
		case *model.RuleCall:
			return []*Step{{Kind: StepCall, Into: p.Name, Call: l.call(inner)}}
		case *model.Recover:
			return []*Step{l.recover(inner, p.Name, level)}
		default:
			panic(fmt.Sprintf("internal error: binding '%s' on %T", p.Name, p.Inner))
		}
	case *model.SpanBinding:
		return []*Step{{Kind: StepSpan, Into: p.Name, Inner: l.steps(p.Inner, level)}}
	case *model.Peek:
		return []*Step{{Kind: StepPeek, Body: l.block(itemsOf(p.Inner), level+1, CollectAssign)}}
	case *model.Not:
		return []*Step{{Kind: StepNot, What: model.Format(p.Inner), Body: l.block(itemsOf(p.Inner), level+1, CollectNone)}}
	case *model.Recover:
		return []*Step{l.recover(p, "", level)}
	default:
		panic("internal error: unknown pattern kind")
	}
}

func (l *lowerer) recover(p *model.Recover, into string, level int) *Step {
	step := &Step{
		Kind: StepRecover,
		Into: into,
		Sync: l.block(itemsOf(p.Sync), level+1, CollectNone),
	}
	if call, ok := p.Body.(*model.RuleCall); ok {
		step.Value = model.TypeOf(call).GoType(l.g.Runtime)
		step.Body = &Block{Level: level + 1, Steps: []*Step{{Kind: StepCall, Call: l.call(call)}}}
		return step
	}
	collect := CollectAddress
	if into != "" {
		collect = CollectNone
	}
	step.Body = l.block(itemsOf(p.Body), level+1, collect)
	return step
}

func (l *lowerer) call(p *model.RuleCall) *Call {
	res := p.Resolution
	switch res.Kind {
	case model.ResolvedLocal, model.ResolvedInherited:
		call := &Call{
			Kind:    CallRule,
			Name:    p.Name,
			Func:    FuncName(res.Owner.Name, res.Rule.Name),
			Grammar: res.Owner.Name,
		}
		if len(p.Args) != len(res.Rule.Params) {
			panic(fmt.Sprintf("internal error: call to %s with %d arguments", p.Name, len(p.Args)))
		}
		for i, arg := range p.Args {
			call.Args = append(call.Args, l.arg(arg, res.Rule.Params[i]))
		}
		return call
	case model.ResolvedBuiltin:
		return &Call{Kind: CallBuiltin, Name: p.Name, Func: "rt." + res.Builtin.Func}
	case model.ResolvedParam:
		return &Call{Kind: CallParam, Name: p.Name, Func: p.Name}
	default:
		panic(fmt.Sprintf("internal error: unresolved call to %s", p.Name))
	}
}

func (l *lowerer) arg(a *model.Arg, param *model.Param) Arg {
	out := Arg{Kind: a.Kind, Name: a.Text, Go: a.Text}
	if a.Kind != ast.ArgIdent {
		return out
	}
	res := a.Resolution
	switch res.Kind {
	case model.ResolvedLocal, model.ResolvedInherited:
		out.Ref = CallRule
		out.Grammar = res.Owner.Name
		out.Func = FuncName(res.Owner.Name, res.Rule.Name)
	case model.ResolvedBuiltin:
		out.Ref = CallBuiltin
		out.Func = "rt." + res.Builtin.Func
	case model.ResolvedParam:
		out.Ref = CallParam
		out.Func = a.Text
		if res.Param.Type == "" {
			// Already a rule producing any.
			return out
		}
	default:
		panic(fmt.Sprintf("internal error: unresolved argument %s", a.Text))
	}
	out.Go = out.Func
	if param.Type == "" {
		out.Go = "rt.Erase(" + out.Go + ")"
	}
	return out
}
