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

package analysis

import (
	"github.com/tidwall/btree"

	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/reporter"
)

// Facts is everything code generation needs to know about a grammar beyond
// the model itself.
type Facts struct {
	Grammar  *model.Grammar
	Rules    []*RuleFacts
	Keywords *btree.Set[string]
	Nullable *Nullability

	byRule map[*model.Rule]*RuleFacts
}

// Rule returns the facts for one of the grammar's own rules.
func (f *Facts) Rule(r *model.Rule) *RuleFacts {
	return f.byRule[r]
}

// KeywordList returns the keyword set in sorted order.
func (f *Facts) KeywordList() []string {
	return f.Keywords.Keys()
}

// RuleFacts are the facts about one rule.
type RuleFacts struct {
	Rule           *model.Rule
	Classification Classification
	Nullable       bool
	Variants       []*VariantFacts
}

// VariantFacts are the facts about one variant of a rule.
type VariantFacts struct {
	Variant *model.Variant
	// Recursive is set for directly left-recursive variants.
	Recursive bool
	// Tail is the sequence matched after the accumulated left-hand side, for
	// recursive variants.
	Tail []model.Pattern
	// LHS is the name the accumulated left-hand side is bound to in a
	// recursive variant's action, or "".
	LHS string
	// HasCut is set if the variant's sequence, or its tail, has a top-level
	// cut.
	HasCut bool
	// Bindings are the names visible to the variant's action.
	Bindings []Export
}

// Analyze computes the facts for g. It reports rules that cannot terminate,
// repetitions that could loop without consuming input and misplaced cuts.
// It must only be called on a grammar that passed validation.
func Analyze(g *model.Grammar, reg *builtins.Registry, handler *reporter.Handler) (*Facts, error) {
	facts := &Facts{
		Grammar:  g,
		Keywords: Keywords(g),
		Nullable: ComputeNullability(g, reg),
		byRule:   make(map[*model.Rule]*RuleFacts, len(g.Rules)),
	}
	for _, r := range g.Rules {
		rf, err := analyzeRule(r, facts.Nullable, handler)
		if err != nil {
			return nil, err
		}
		facts.Rules = append(facts.Rules, rf)
		facts.byRule[r] = rf
	}
	return facts, handler.Error()
}

func analyzeRule(r *model.Rule, nullable *Nullability, handler *reporter.Handler) (*RuleFacts, error) {
	rf := &RuleFacts{
		Rule:           r,
		Classification: Classify(r),
		Nullable:       nullable.Rule(r),
	}
	if rf.Classification.LeftRecursive() && len(rf.Classification.Base) == 0 {
		if err := handler.HandleErrorf(r.NamePos,
			"left-recursive rule '%s' requires at least one non-recursive base variant", r.Name); err != nil {
			return nil, err
		}
	}
	for _, v := range r.Variants {
		vf := &VariantFacts{Variant: v}
		items := v.Patterns.Items
		if at, ok := SelfCall(r, v); ok {
			vf.Recursive = true
			if at > 0 {
				if err := handler.HandleErrorf(v.Patterns.Items[0],
					"rule '%s': '%s' before the left-recursive call is not supported; move it into a base variant or after the call",
					r.Name, model.Format(v.Patterns.Items[0])); err != nil {
					return nil, err
				}
			}
			vf.Tail, vf.LHS = Tail(r, v)
			items = vf.Tail
			if nullable.All(vf.Tail) {
				if err := handler.HandleErrorf(v.Patterns,
					"left-recursive variant of rule '%s' can match empty input after the recursive call (infinite loop)", r.Name); err != nil {
					return nil, err
				}
			}
		}
		_, _, vf.HasCut = FindCut(items)
		vf.Bindings, _ = Bindings(v.Patterns.Items)
		rf.Variants = append(rf.Variants, vf)

		if err := checkHazards(v.Patterns, nullable, handler); err != nil {
			return nil, err
		}
	}
	return rf, nil
}

// checkHazards reports repetitions over nullable bodies and sequences with
// more than one cut.
func checkHazards(root model.Pattern, nullable *Nullability, handler *reporter.Handler) error {
	var err error
	report := func(p model.Pattern, format string, args ...any) {
		if err == nil {
			err = handler.HandleErrorf(p, format, args...)
		}
	}
	model.Walk(root, func(p model.Pattern) bool {
		switch p := p.(type) {
		case *model.Repeat:
			if nullable.Pattern(p.Inner) {
				report(p, "repetition body can match empty input (infinite loop)")
			}
		case *model.RepeatPlus:
			if nullable.Pattern(p.Inner) {
				report(p, "repetition body can match empty input (infinite loop)")
			}
		case *model.Sequence:
			for _, cut := range extraCuts(p.Items) {
				report(cut, "a sequence may contain at most one cut operator")
			}
		}
		return err == nil
	})
	return err
}
