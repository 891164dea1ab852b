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
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/model"
)

// Nullability records which rules can succeed without consuming input.
type Nullability struct {
	builtins *builtins.Registry
	rules    map[*model.Rule]bool
}

// ComputeNullability computes the nullability of every rule in g and its
// ancestors, as a least fixpoint.
func ComputeNullability(g *model.Grammar, reg *builtins.Registry) *Nullability {
	n := &Nullability{builtins: reg, rules: make(map[*model.Rule]bool)}
	var all []*model.Rule
	for gr := range g.Lineage() {
		all = append(all, gr.Rules...)
	}
	for changed := true; changed; {
		changed = false
		for _, r := range all {
			if n.rules[r] {
				continue
			}
			for _, v := range r.Variants {
				if n.Pattern(v.Patterns) {
					n.rules[r] = true
					changed = true
					break
				}
			}
		}
	}
	return n
}

// Rule reports whether r can match empty input.
func (n *Nullability) Rule(r *model.Rule) bool {
	return n.rules[r]
}

// Pattern reports whether p can match empty input. Calls through rule
// parameters are assumed to consume input.
func (n *Nullability) Pattern(p model.Pattern) bool {
	switch p := p.(type) {
	case *model.Literal:
		return p.Text == ""
	case *model.RuleCall:
		switch p.Resolution.Kind {
		case model.ResolvedLocal, model.ResolvedInherited:
			return n.rules[p.Resolution.Rule]
		case model.ResolvedBuiltin:
			return p.Resolution.Builtin.Nullable
		default:
			return false
		}
	case *model.Sequence:
		return n.All(p.Items)
	case *model.Alternation:
		for _, alt := range p.Alternatives {
			if n.Pattern(alt) {
				return true
			}
		}
		return false
	case *model.Optional, *model.Repeat, *model.Recover, *model.Cut, *model.Peek, *model.Not:
		return true
	case *model.RepeatPlus:
		return n.Pattern(p.Inner)
	case *model.Group:
		return n.Pattern(p.Inner)
	case *model.Delimited:
		return false
	case *model.Binding:
		return n.Pattern(p.Inner)
	case *model.SpanBinding:
		return n.Pattern(p.Inner)
	default:
		panic("internal error: unknown pattern kind")
	}
}

// All reports whether every item can match empty input.
func (n *Nullability) All(items []model.Pattern) bool {
	for _, item := range items {
		if !n.Pattern(item) {
			return false
		}
	}
	return true
}
