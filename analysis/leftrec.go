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
	"slices"

	"github.com/bufbuild/grammarc/model"
)

// Classification partitions the variants of a rule by whether they start
// with a call to the rule itself. Both lists hold variant indexes in
// declaration order.
type Classification struct {
	Base      []int `yaml:"base"`
	Recursive []int `yaml:"recursive,omitempty"`
}

// LeftRecursive reports whether the rule has any directly left-recursive
// variants.
func (c Classification) LeftRecursive() bool {
	return len(c.Recursive) > 0
}

// Classify partitions the variants of r.
func Classify(r *model.Rule) Classification {
	var c Classification
	for i, v := range r.Variants {
		if _, ok := SelfCall(r, v); ok {
			c.Recursive = append(c.Recursive, i)
		} else {
			c.Base = append(c.Base, i)
		}
	}
	return c
}

// SelfCall returns the index of the leading call to r in v's top-level
// sequence, if there is one. Leading cuts and lookaheads are skipped over,
// since they consume no input. A call through a rule parameter never counts,
// even if the parameter shares the rule's name.
func SelfCall(r *model.Rule, v *model.Variant) (int, bool) {
	for i, item := range v.Patterns.Items {
		switch item := item.(type) {
		case *model.Cut, *model.Peek, *model.Not:
			continue
		case *model.Binding:
			return i, isCallTo(item.Inner, r)
		default:
			return i, isCallTo(item, r)
		}
	}
	return 0, false
}

func isCallTo(p model.Pattern, r *model.Rule) bool {
	call, ok := p.(*model.RuleCall)
	return ok && call.Resolution.Kind == model.ResolvedLocal && call.Resolution.Rule == r
}

// Tail returns the part of a left-recursive variant that is matched after
// the accumulated left-hand side: the top-level items following the self
// call. It also returns the name the self call is bound to, or "". Zero-width
// items before the self call are not part of the tail; [Analyze] rejects
// variants that have any.
func Tail(r *model.Rule, v *model.Variant) (tail []model.Pattern, lhs string) {
	i, ok := SelfCall(r, v)
	if !ok {
		panic("internal error: tail requested for a variant that is not left-recursive")
	}
	items := v.Patterns.Items
	if b, ok := items[i].(*model.Binding); ok {
		lhs = b.Name
	}
	return slices.Clone(items[i+1:]), lhs
}
