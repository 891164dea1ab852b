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
	"iter"

	"github.com/bufbuild/grammarc/source"
)

// Grammar is a named collection of rules, optionally inheriting the rules of
// a parent grammar.
type Grammar struct {
	Name string
	File *source.File
	// Parent is the grammar this one extends, or nil.
	Parent *Grammar
	// ParentName is the name of the parent as written in the source. It is
	// empty if the grammar has no parent.
	ParentName string
	Uses       []*Use
	Rules      []*Rule
	Pos        source.Span
	// Runtime is the package name of the runtime in Go type expressions.
	Runtime string

	rulesByName map[string]*Rule
}

// Span implements [source.Spanner].
func (g *Grammar) Span() source.Span { return g.Pos }

// Rule returns the rule with the given name defined directly in g, or nil.
func (g *Grammar) Rule(name string) *Rule {
	return g.rulesByName[name]
}

// Resolve looks up a rule by name, checking g's own rules first and then
// each ancestor in turn. It returns the rule and the grammar that defines
// it, or nil values if no grammar in the chain defines the name.
func (g *Grammar) Resolve(name string) (*Rule, *Grammar) {
	for gr := range g.Lineage() {
		if r := gr.Rule(name); r != nil {
			return r, gr
		}
	}
	return nil, nil
}

// Lineage yields g followed by each of its ancestors, nearest first.
func (g *Grammar) Lineage() iter.Seq[*Grammar] {
	return func(yield func(*Grammar) bool) {
		for gr := g; gr != nil; gr = gr.Parent {
			if !yield(gr) {
				return
			}
		}
	}
}

// Use is a Go import requested by the grammar.
type Use struct {
	// Alias is the import name, or empty.
	Alias string
	Path  string
	Pos   source.Span
}

// Rule is one named rule of a grammar.
type Rule struct {
	Name       string
	NamePos    source.Span
	Pub        bool
	TypeParams []*TypeParam
	Params     []*Param
	// ReturnType is the Go type expression of the rule's result.
	ReturnType string
	ReturnPos  source.Span
	Attributes []*Attribute
	Variants   []*Variant
	Pos        source.Span
}

// Span implements [source.Spanner].
func (r *Rule) Span() source.Span { return r.Pos }

// Param returns the parameter with the given name, or nil.
func (r *Rule) Param(name string) *Param {
	for _, p := range r.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Attribute returns the first attribute with the given name, or nil.
func (r *Rule) Attribute(name string) *Attribute {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Doc returns the rule's documentation, from doc comments and doc
// attributes, one line per entry.
func (r *Rule) Doc() []string {
	var lines []string
	for _, a := range r.Attributes {
		if a.Name == "doc" {
			lines = append(lines, a.Value)
		}
	}
	return lines
}

// IsGeneric reports whether the rule declares type parameters.
func (r *Rule) IsGeneric() bool {
	return len(r.TypeParams) > 0
}

// TypeParam is a Go type parameter of a generic rule.
type TypeParam struct {
	Name       string
	Constraint string
	Pos        source.Span
}

// Param is a parameter of a rule.
type Param struct {
	Name string
	// Type is the Go type annotation, or empty if the parameter is untyped.
	Type string
	Pos  source.Span
}

// Span implements [source.Spanner].
func (p *Param) Span() source.Span { return p.Pos }

// Attribute is a rule annotation such as #[inline] or a doc comment.
type Attribute struct {
	Name  string
	Value string
	Args  string
	Pos   source.Span
}

// Variant is one alternative of a rule.
type Variant struct {
	// Patterns is the flattened pattern sequence.
	Patterns *Sequence
	Action   Action
	Pos      source.Span
}

// Span implements [source.Spanner].
func (v *Variant) Span() source.Span { return v.Pos }

// Action is the Go code that computes a variant's result.
type Action struct {
	Code string
	Pos  source.Span
}
