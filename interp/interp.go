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

// Package interp runs a lowered grammar without generating code.
//
// A [Machine] walks the same [codegen.Program] that the Go emitter renders,
// using the combinators of package rt with every result typed as any. Since
// actions are Go code, they cannot be run directly: callers register an
// [Action] per rule variant, and variants without one fall back to a value
// derived from the action text. See [Machine.Parse].
package interp

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"maps"
	"strconv"
	"strings"

	"github.com/bufbuild/grammarc/codegen"
	"github.com/bufbuild/grammarc/rt"
)

// ActionKey identifies a variant of a rule.
type ActionKey struct {
	// Grammar is the grammar that defines the rule. If empty, the key
	// matches the rule in whichever grammar defines it.
	Grammar string
	Rule    string
	Variant int
}

// Env holds the values visible to an action: the rule's arguments, the
// names bound by the variant and, in a left-recursive tail, the value
// parsed so far under the self call's binding name.
type Env map[string]any

// Action computes the result of a variant.
type Action func(env Env) (any, error)

// Actions maps variants to their actions.
type Actions map[ActionKey]Action

// Machine executes a program. It is safe for concurrent use; each call to
// Parse has its own context.
type Machine struct {
	prog     *codegen.Program
	programs map[string]*codegen.Program
	actions  Actions
	skipper  *ruleRef
	opts     []rt.Option
}

type ruleRef struct {
	prog *codegen.Program
	rule *codegen.Rule
}

// New returns a machine for prog. The parent programs of prog must be
// linked through [codegen.Program.Parent]. The options are passed to every
// context the machine creates, after the machine's own keyword and skipper
// options.
func New(prog *codegen.Program, actions Actions, opts ...rt.Option) *Machine {
	m := &Machine{
		prog:     prog,
		programs: map[string]*codegen.Program{},
		actions:  actions,
	}
	for p := prog; p != nil; p = p.Parent {
		m.programs[p.Grammar] = p
		if m.skipper != nil || prog.Skipper == "" {
			continue
		}
		for _, r := range p.Rules {
			if r.Func == prog.Skipper {
				m.skipper = &ruleRef{prog: p, rule: r}
			}
		}
	}
	m.opts = append(m.opts, rt.WithKeywords(prog.Keywords...))
	if m.skipper != nil {
		ref := m.skipper
		m.opts = append(m.opts, rt.SkipWith(func(c *rt.Context) (any, error) {
			return m.rule(c, ref.prog, ref.rule, nil)
		}))
	}
	m.opts = append(m.opts, opts...)
	return m
}

// Parse parses all of src as the named rule, which may be inherited, and
// returns the rule's value. args are the values of the rule's parameters;
// rule parameters take an [rt.Rule] of any.
func (m *Machine) Parse(rule, src string, args ...any) (any, error) {
	v, _, err := m.ParseContext(rt.NewContext(src, m.opts...), rule, args...)
	return v, err
}

// ParseContext is like [Machine.Parse], but runs on a caller-supplied
// context, which also makes the recovered errors available. It returns the
// context for convenience.
func (m *Machine) ParseContext(c *rt.Context, rule string, args ...any) (any, *rt.Context, error) {
	ref, ok := m.lookup(m.prog.Grammar, rule)
	if !ok {
		return nil, c, fmt.Errorf("grammar %s has no rule %q", m.prog.Grammar, rule)
	}
	if len(args) != len(ref.rule.Params) {
		return nil, c, fmt.Errorf("rule %q expects %d argument(s), but got %d", rule, len(ref.rule.Params), len(args))
	}
	v, err := rt.Run(c, func(c *rt.Context) (any, error) {
		return m.rule(c, ref.prog, ref.rule, args)
	})
	return v, c, err
}

// Options returns the context options the machine uses, for building a
// context to pass to [Machine.ParseContext].
func (m *Machine) Options() []rt.Option {
	return m.opts
}

func (m *Machine) lookup(grammar, name string) (ruleRef, bool) {
	for p := m.programs[grammar]; p != nil; p = p.Parent {
		if r := p.Rule(name); r != nil {
			return ruleRef{prog: p, rule: r}, true
		}
	}
	return ruleRef{}, false
}

// frame is one activation of a rule.
type frame struct {
	m      *Machine
	prog   *codegen.Program
	rule   *codegen.Rule
	params map[string]any
}

func (m *Machine) rule(c *rt.Context, prog *codegen.Program, r *codegen.Rule, args []any) (_ any, err error) {
	if err = c.Enter(r.Name); err != nil {
		return
	}
	defer c.Exit()
	f := &frame{m: m, prog: prog, rule: r, params: make(map[string]any, len(args))}
	for i, p := range r.Params {
		f.params[p.Name] = args[i]
	}
	arms := make([]rt.Arm[any], len(r.Arms))
	for i, arm := range r.Arms {
		arms[i] = func(c *rt.Context, cut *rt.Cut) (any, error) {
			return f.arm(c, cut, arm, nil)
		}
	}
	if !r.LeftRecursive() {
		return rt.Choice(c, arms...)
	}
	tails := make([]rt.Tail[any], len(r.Tails))
	for i, tail := range r.Tails {
		tails[i] = func(c *rt.Context, cut *rt.Cut, lhs any) (any, error) {
			return f.arm(c, cut, tail, lhs)
		}
	}
	return rt.LeftRec(c, func(c *rt.Context) (any, error) {
		return rt.Choice(c, arms...)
	}, tails...)
}

func (f *frame) arm(c *rt.Context, cut *rt.Cut, arm *codegen.Arm, lhs any) (any, error) {
	env := make(Env, len(f.params)+len(arm.Block.Vars)+1)
	maps.Copy(env, f.params)
	if arm.LHS != "" {
		env[arm.LHS] = lhs
	}
	if err := f.block(c, cut, arm.Block, env); err != nil {
		return nil, err
	}
	key := ActionKey{Grammar: f.prog.Grammar, Rule: f.rule.Name, Variant: arm.Variant}
	action, ok := f.m.actions[key]
	if !ok {
		key.Grammar = ""
		action, ok = f.m.actions[key]
	}
	if ok {
		return action(env)
	}
	return fallback(arm.Action, env), nil
}

// block runs b's steps, binding names in env.
func (f *frame) block(c *rt.Context, cut *rt.Cut, b *codegen.Block, env Env) error {
	for _, v := range b.Vars {
		env[v.Name] = nil
	}
	for _, s := range b.Steps {
		if err := f.step(c, cut, s, env); err != nil {
			return err
		}
	}
	return nil
}

// nested returns an arm that runs b in a scope of its own and, when b
// matches, hands its bindings to env as b.Collect says.
func (f *frame) nested(b *codegen.Block, env Env) rt.Arm[any] {
	return func(c *rt.Context, cut *rt.Cut) (any, error) {
		local := make(Env, len(b.Vars))
		if err := f.block(c, cut, b, local); err != nil {
			return nil, err
		}
		for _, v := range b.Vars {
			val := local[v.Name]
			switch b.Collect {
			case codegen.CollectAssign, codegen.CollectAddress:
				env[v.Name] = val
			case codegen.CollectAppend:
				list, _ := env[v.Name].([]any)
				env[v.Name] = append(list, val)
			}
		}
		return rt.Unit{}, nil
	}
}

func (f *frame) step(c *rt.Context, cut *rt.Cut, s *codegen.Step, env Env) error {
	var (
		v   any
		err error
	)
	switch s.Kind {
	case codegen.StepLit:
		if s.Keyword {
			v, err = rt.Keyword(c, s.Text)
		} else {
			v, err = rt.Lit(c, s.Text)
		}
	case codegen.StepCall:
		v, err = f.call(c, s.Call)
	case codegen.StepCommit:
		cut.Commit()
		return nil
	case codegen.StepSpan:
		start := c.Start()
		for _, inner := range s.Inner {
			if err := f.step(c, cut, inner, env); err != nil {
				return err
			}
		}
		v = c.SpanFrom(start)
	case codegen.StepDelimited:
		open := c.Start()
		if _, err := rt.Open(c, s.Open); err != nil {
			return err
		}
		for _, inner := range s.Inner {
			if err := f.step(c, cut, inner, env); err != nil {
				return err
			}
		}
		_, err = rt.Close(c, open, s.Close)
	case codegen.StepRepeat:
		if s.Min > 0 {
			_, err = rt.Many1(c, f.nested(s.Body, env))
		} else {
			_, err = rt.Many(c, f.nested(s.Body, env))
		}
	case codegen.StepOptional:
		_, err = rt.Optional(c, f.nested(s.Body, env))
	case codegen.StepChoice:
		arms := make([]rt.Arm[any], len(s.Arms))
		for i, arm := range s.Arms {
			arms[i] = f.nested(arm, env)
		}
		_, err = rt.Choice(c, arms...)
	case codegen.StepPeek:
		_, err = rt.Peek(c, f.nested(s.Body, env))
	case codegen.StepNot:
		_, err = rt.Not(c, s.What, f.nested(s.Body, env))
	case codegen.StepRecover:
		v, err = f.recover(c, s, env)
	default:
		panic(fmt.Sprintf("internal error: unknown step kind %v", s.Kind))
	}
	if err != nil {
		return err
	}
	if s.Into != "" {
		env[s.Into] = v
	}
	return nil
}

func (f *frame) recover(c *rt.Context, s *codegen.Step, env Env) (any, error) {
	body := f.nested(s.Body, env)
	if s.Value != "" {
		call := s.Body.Steps[0].Call
		body = func(c *rt.Context, _ *rt.Cut) (any, error) {
			return f.call(c, call)
		}
	}
	sync := f.nested(s.Sync, env)
	v, err := rt.Recover(c, body, func(c *rt.Context, cut *rt.Cut) (rt.Unit, error) {
		_, err := sync(c, cut)
		return rt.Unit{}, err
	})
	if err != nil || v == nil {
		return nil, err
	}
	return *v, nil
}

func (f *frame) call(c *rt.Context, call *codegen.Call) (any, error) {
	switch call.Kind {
	case codegen.CallBuiltin:
		return f.m.builtin(call.Func)(c)
	case codegen.CallParam:
		return f.param(call.Name)(c)
	case codegen.CallRule:
		ref, ok := f.m.lookup(call.Grammar, call.Name)
		if !ok {
			panic(fmt.Sprintf("internal error: no rule %s in grammar %s", call.Name, call.Grammar))
		}
		args := make([]any, len(call.Args))
		for i, arg := range call.Args {
			args[i] = f.arg(arg)
		}
		return f.m.rule(c, ref.prog, ref.rule, args)
	default:
		panic(fmt.Sprintf("internal error: unknown call kind %v", call.Kind))
	}
}

func (f *frame) param(name string) rt.Rule[any] {
	r, ok := f.params[name].(rt.Rule[any])
	if !ok {
		panic(fmt.Sprintf("internal error: parameter %s of rule %s is %T, not a rule", name, f.rule.Name, f.params[name]))
	}
	return r
}

func (m *Machine) builtin(fn string) rt.Rule[any] {
	r, ok := builtinFuncs[strings.TrimPrefix(fn, "rt.")]
	if !ok {
		panic(fmt.Sprintf("internal error: unknown builtin %s", fn))
	}
	return r
}

// arg evaluates a call argument.
func (f *frame) arg(arg codegen.Arg) any {
	switch arg.Ref {
	case codegen.CallBuiltin:
		return f.m.builtin(arg.Func)
	case codegen.CallParam:
		return f.params[arg.Name]
	case codegen.CallRule:
		ref, ok := f.m.lookup(arg.Grammar, arg.Name)
		if !ok {
			panic(fmt.Sprintf("internal error: no rule %s in grammar %s", arg.Name, arg.Grammar))
		}
		return rt.Rule[any](func(c *rt.Context) (any, error) {
			return f.m.rule(c, ref.prog, ref.rule, nil)
		})
	}
	v, ok := literal(arg.Name)
	if !ok {
		panic(fmt.Sprintf("internal error: argument %s is not a literal", arg.Name))
	}
	return v
}

// fallback computes the value of a variant with no registered action. If
// the action is a single name bound in env, it is that name's value. If it
// is a Go literal, it is the literal's value. Otherwise it is env itself.
func fallback(action codegen.Action, env Env) any {
	code := action.Code
	if v, ok := env[code]; ok {
		return v
	}
	if v, ok := literal(code); ok {
		return v
	}
	return env
}

// literal evaluates a Go basic literal or boolean constant. Integers are
// int64, floats are float64 and characters are runes.
func literal(text string) (any, bool) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return nil, false
	}
	switch expr := expr.(type) {
	case *ast.Ident:
		switch expr.Name {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	case *ast.UnaryExpr:
		if expr.Op != token.SUB {
			return nil, false
		}
		v, ok := literal(text[int(expr.X.Pos())-1:])
		switch v := v.(type) {
		case int64:
			return -v, ok
		case float64:
			return -v, ok
		}
	case *ast.BasicLit:
		switch expr.Kind {
		case token.INT:
			v, err := strconv.ParseInt(strings.ReplaceAll(expr.Value, "_", ""), 0, 64)
			return v, err == nil
		case token.FLOAT:
			v, err := strconv.ParseFloat(strings.ReplaceAll(expr.Value, "_", ""), 64)
			return v, err == nil
		case token.STRING:
			v, err := strconv.Unquote(expr.Value)
			return v, err == nil
		case token.CHAR:
			v, _, _, err := strconv.UnquoteChar(expr.Value[1:len(expr.Value)-1], '\'')
			return v, err == nil
		}
	}
	return nil, false
}
