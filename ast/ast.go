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

package ast

import "github.com/bufbuild/grammarc/source"

// Node is implemented by all nodes in the tree.
type Node interface {
	source.Spanner
}

// Ident is an identifier and its location.
type Ident struct {
	Name string
	Pos  source.Span
}

// Span implements [Node].
func (i Ident) Span() source.Span { return i.Pos }

// GrammarNode is the root of a parsed grammar file.
type GrammarNode struct {
	File   *source.File
	Name   Ident
	Parent *Ident
	Uses   []*UseNode
	Rules  []*RuleNode
	Pos    source.Span
}

// Span implements [Node].
func (g *GrammarNode) Span() source.Span { return g.Pos }

// UseNode is a `use [alias] "path"` statement, which becomes a Go import in
// generated code.
type UseNode struct {
	Alias *Ident
	Path  string
	Pos   source.Span
}

// Span implements [Node].
func (u *UseNode) Span() source.Span { return u.Pos }

// AttributeNode is a `#[name]`, `#[name = "value"]` or `#[name(args)]`
// attribute. A /// doc comment is an attribute named "doc".
type AttributeNode struct {
	Name Ident
	// Value is the unquoted value of a name = "value" attribute, or the doc
	// comment text.
	Value string
	// Args is the raw text between the parentheses of name(args).
	Args string
	Pos  source.Span
}

// Span implements [Node].
func (a *AttributeNode) Span() source.Span { return a.Pos }

// RuleNode is one rule definition.
type RuleNode struct {
	Attributes []*AttributeNode
	Pub        bool
	Name       Ident
	TypeParams []*TypeParamNode
	Params     []*ParamNode
	ReturnType *GoTypeNode
	Variants   []*VariantNode
	Pos        source.Span
}

// Span implements [Node].
func (r *RuleNode) Span() source.Span { return r.Pos }

// TypeParamNode is a Go type parameter such as `T any`.
type TypeParamNode struct {
	Name       Ident
	Constraint *GoTypeNode
}

// Span implements [Node].
func (t *TypeParamNode) Span() source.Span { return source.Join(t.Name, t.Constraint) }

// ParamNode is a rule parameter. Type is nil when the parameter has no type
// annotation.
type ParamNode struct {
	Name Ident
	Type *GoTypeNode
}

// Span implements [Node].
func (p *ParamNode) Span() source.Span {
	if p.Type == nil {
		return p.Name.Pos
	}
	return source.Join(p.Name, p.Type)
}

// GoTypeNode is a Go type expression, kept as source text.
type GoTypeNode struct {
	Text string
	Pos  source.Span
}

// Span implements [Node].
func (t *GoTypeNode) Span() source.Span {
	if t == nil {
		return source.Span{}
	}
	return t.Pos
}

// VariantNode is one alternative of a rule: a pattern sequence and its action.
type VariantNode struct {
	Patterns []PatternNode
	Action   *ActionNode
	Pos      source.Span
}

// Span implements [Node].
func (v *VariantNode) Span() source.Span { return v.Pos }

// ActionNode is the Go code between the braces of `-> { ... }`.
type ActionNode struct {
	Code string
	Pos  source.Span
}

// Span implements [Node].
func (a *ActionNode) Span() source.Span { return a.Pos }
