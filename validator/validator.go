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

// Package validator checks a grammar model for problems that would make the
// generated parser fail to compile or misbehave: unresolved names, arity
// mismatches, misplaced cuts, invalid literals and inconsistent bindings.
// It also warns about rules that are never used and alternatives that can
// never match.
package validator

import (
	"go/token"

	"github.com/tidwall/btree"

	"github.com/bufbuild/grammarc/analysis"
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/source"
)

// Validate checks g against the given builtin registry. Errors and warnings
// are reported to handler. It returns a non-nil error if any error was
// reported.
func Validate(g *model.Grammar, reg *builtins.Registry, handler *reporter.Handler) error {
	v := &validator{g: g, reg: reg, h: handler}
	v.checkRules()
	v.checkUnused()
	if v.err != nil {
		return v.err
	}
	return handler.Error()
}

type validator struct {
	g   *model.Grammar
	reg *builtins.Registry
	h   *reporter.Handler
	// err is the first error returned by the handler. Once set, nothing
	// more is reported.
	err error
}

func (v *validator) errorf(span source.Spanner, format string, args ...any) {
	if v.err == nil {
		v.err = v.h.HandleErrorf(span, format, args...)
	}
}

func (v *validator) warnf(span source.Spanner, format string, args ...any) {
	if v.err == nil {
		v.h.HandleWarningf(span, format, args...)
	}
}

func (v *validator) checkRules() {
	seen := make(map[string]*model.Rule, len(v.g.Rules))
	for _, r := range v.g.Rules {
		if first, ok := seen[r.Name]; ok {
			v.errorf(r.NamePos, "duplicate rule '%s': first defined at %s", r.Name, first.NamePos)
			continue
		}
		seen[r.Name] = r
		v.checkSignature(r)
		for i, variant := range r.Variants {
			v.checkVariant(r, variant)
			v.checkAlternative(r, i)
		}
	}
}

func (v *validator) checkSignature(r *model.Rule) {
	names := map[string]bool{}
	for _, tp := range r.TypeParams {
		if names[tp.Name] {
			v.errorf(tp.Pos, "duplicate type parameter '%s' in rule '%s'", tp.Name, r.Name)
		}
		names[tp.Name] = true
	}
	names = map[string]bool{}
	for _, p := range r.Params {
		if names[p.Name] {
			v.errorf(p, "duplicate parameter '%s' in rule '%s'", p.Name, r.Name)
		}
		if _, ok := reservedNames[p.Name]; ok || token.IsKeyword(p.Name) {
			v.errorf(p, "parameter name '%s' is reserved", p.Name)
		}
		names[p.Name] = true
	}
	if r.Name == "ws" && (len(r.Params) > 0 || len(r.TypeParams) > 0) {
		v.errorf(r.NamePos, "rule 'ws' overrides whitespace skipping and must not take parameters")
	}
}

func (v *validator) checkVariant(r *model.Rule, variant *model.Variant) {
	_, errs := analysis.Bindings(variant.Patterns.Items)
	for _, err := range errs {
		if v.err == nil {
			v.err = v.h.HandleError(err)
		}
	}
	v.checkPattern(r, variant.Patterns, false)
}

// checkPattern checks p and everything nested in it. inLookaround is set
// under peek, not and recover, where a cut has nothing to commit.
func (v *validator) checkPattern(r *model.Rule, p model.Pattern, inLookaround bool) {
	switch p := p.(type) {
	case *model.Literal:
		v.checkLiteral(p)
	case *model.RuleCall:
		v.checkCall(r, p)
	case *model.Cut:
		if inLookaround {
			v.errorf(p, "cut operator is not allowed inside peek, not or recover")
		}
	case *model.Sequence:
		for _, item := range p.Items {
			v.checkPattern(r, item, inLookaround)
		}
	case *model.Alternation:
		for _, alt := range p.Alternatives {
			v.checkPattern(r, alt, inLookaround)
		}
	case *model.Optional:
		v.checkPattern(r, p.Inner, inLookaround)
	case *model.Repeat:
		v.checkPattern(r, p.Inner, inLookaround)
	case *model.RepeatPlus:
		v.checkPattern(r, p.Inner, inLookaround)
	case *model.Group:
		v.checkPattern(r, p.Inner, inLookaround)
	case *model.Delimited:
		v.checkPattern(r, p.Inner, inLookaround)
	case *model.Binding:
		v.checkBindingName(r, p.Name, p.NamePos)
		v.checkPattern(r, p.Inner, inLookaround)
	case *model.SpanBinding:
		v.checkBindingName(r, p.Name, p.NamePos)
		if t := model.TypeOf(p.Inner); !t.Spannable() {
			v.errorf(p, "cannot bind the span of '%s': values of type %s do not support span extraction",
				model.Format(p.Inner), t)
		}
		v.checkPattern(r, p.Inner, inLookaround)
	case *model.Peek:
		v.checkPattern(r, p.Inner, true)
	case *model.Not:
		v.checkPattern(r, p.Inner, true)
	case *model.Recover:
		v.checkPattern(r, p.Body, true)
		v.checkPattern(r, p.Sync, true)
	default:
		panic("internal error: unknown pattern kind")
	}
}

// checkAlternative warns about a variant that can never be selected because
// an earlier variant always wins first.
func (v *validator) checkAlternative(r *model.Rule, i int) {
	later := r.Variants[i].Patterns.Items
	for j := range i {
		earlier := r.Variants[j].Patterns.Items
		if sameItems(earlier, later) {
			v.warnf(r.Variants[i], "duplicate alternative: alternative %d of rule '%s' is identical to alternative %d",
				i+1, r.Name, j+1)
			return
		}
		if len(earlier) > 0 && len(earlier) < len(later) && allLiterals(earlier) && sameItems(earlier, later[:len(earlier)]) {
			v.warnf(r.Variants[i], "alternative %d of rule '%s' is shadowed by alternative %d, which matches a prefix of it",
				i+1, r.Name, j+1)
			return
		}
	}
}

func sameItems(a, b []model.Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if model.Format(a[i]) != model.Format(b[i]) {
			return false
		}
	}
	return true
}

func allLiterals(items []model.Pattern) bool {
	for _, item := range items {
		if _, ok := item.(*model.Literal); !ok {
			return false
		}
	}
	return true
}

// checkUnused warns about private rules that nothing refers to.
func (v *validator) checkUnused() {
	var unused btree.Map[string, *model.Rule]
	for _, r := range v.g.Rules {
		if r.Pub || r.Name == "main" || r.Name == "ws" || r.Name[0] == '_' {
			continue
		}
		if _, dup := unused.Get(r.Name); !dup {
			unused.Set(r.Name, r)
		}
	}
	markUsed := func(res model.Resolution) {
		if res.Kind == model.ResolvedLocal {
			unused.Delete(res.Rule.Name)
		}
	}
	for _, r := range v.g.Rules {
		for _, variant := range r.Variants {
			model.Walk(variant.Patterns, func(p model.Pattern) bool {
				if call, ok := p.(*model.RuleCall); ok {
					if call.Resolution.Rule != r {
						markUsed(call.Resolution)
					}
					for _, arg := range call.Args {
						markUsed(arg.Resolution)
					}
				}
				return true
			})
		}
	}
	unused.Scan(func(name string, r *model.Rule) bool {
		v.warnf(r.NamePos, "rule '%s' is never used", name)
		return true
	})
}
