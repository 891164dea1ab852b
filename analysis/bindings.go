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
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/source"
)

// Export is a name bound somewhere in a sequence and visible to the
// variant's action.
type Export struct {
	Name string `yaml:"name"`
	// Type is the type of the name in the action. Bindings under a
	// repetition or an optional are wrapped accordingly.
	Type *model.Type  `yaml:"-"`
	Pos  source.Span  `yaml:"-"`
	// Binding is the pattern that introduces the name: a *model.Binding or
	// a *model.SpanBinding.
	Binding model.Pattern `yaml:"-"`
}

// Bindings returns the names exported by items, in the order they are
// bound. It also returns an error for each name bound twice in the same
// scope and for each name bound with different types in different
// alternatives. Bindings under a negative lookahead are dropped.
func Bindings(items []model.Pattern) ([]Export, []reporter.ErrorWithPos) {
	var c bindingCollector
	exports := c.sequence(items)
	return exports, c.errs
}

type bindingCollector struct {
	errs []reporter.ErrorWithPos
}

// sequence concatenates the exports of items, rejecting duplicates.
func (c *bindingCollector) sequence(items []model.Pattern) []Export {
	var out []Export
	seen := map[string]bool{}
	for _, item := range items {
		for _, e := range c.pattern(item) {
			if seen[e.Name] {
				c.errs = append(c.errs, reporter.Errorf(e.Pos, "duplicate binding '%s'", e.Name))
				continue
			}
			seen[e.Name] = true
			out = append(out, e)
		}
	}
	return out
}

func (c *bindingCollector) pattern(p model.Pattern) []Export {
	switch p := p.(type) {
	case *model.Literal, *model.RuleCall, *model.Cut, *model.Not:
		return nil
	case *model.Binding:
		return []Export{{Name: p.Name, Type: p.Type, Pos: p.NamePos, Binding: p}}
	case *model.SpanBinding:
		return append([]Export{{Name: p.Name, Type: model.SpanType, Pos: p.NamePos, Binding: p}}, c.pattern(p.Inner)...)
	case *model.Sequence:
		return c.sequence(p.Items)
	case *model.Group:
		return c.sequence(p.Inner.Items)
	case *model.Delimited:
		return c.sequence(p.Inner.Items)
	case *model.Peek:
		return c.pattern(p.Inner)
	case *model.Optional:
		return wrap(c.pattern(p.Inner), model.OptionalOf)
	case *model.Recover:
		return wrap(c.pattern(p.Body), model.OptionalOf)
	case *model.Repeat:
		return wrap(c.pattern(p.Inner), model.SliceOf)
	case *model.RepeatPlus:
		return wrap(c.pattern(p.Inner), model.SliceOf)
	case *model.Alternation:
		var out []Export
		index := map[string]int{}
		for _, alt := range p.Alternatives {
			for _, e := range c.sequence(alt.Items) {
				i, ok := index[e.Name]
				if !ok {
					index[e.Name] = len(out)
					out = append(out, e)
					continue
				}
				if !out[i].Type.Equal(e.Type) {
					c.errs = append(c.errs, reporter.Errorf(e.Pos,
						"binding '%s' has type %s here but type %s in an earlier alternative",
						e.Name, e.Type, out[i].Type))
				}
			}
		}
		return out
	default:
		panic("internal error: unknown pattern kind")
	}
}

func wrap(exports []Export, fn func(*model.Type) *model.Type) []Export {
	for i := range exports {
		exports[i].Type = fn(exports[i].Type)
	}
	return exports
}
