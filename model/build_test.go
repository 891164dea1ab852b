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

package model_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/grammarc/ast"
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/parser"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/source"
)

func build(t *testing.T, parent *model.Grammar, text string) (*model.Grammar, []reporter.ErrorWithPos) {
	t.Helper()
	var collector reporter.Collector
	handler := reporter.NewHandler(&collector)
	node, err := parser.Parse(t.Name()+".grammar", strings.NewReader(text), handler)
	require.NoError(t, err)
	g, _ := model.Build(node, model.Options{Parent: parent, Builtins: builtins.Go()}, handler)
	require.NotNil(t, g)
	return g, collector.Errors()
}

func mustBuild(t *testing.T, parent *model.Grammar, text string) *model.Grammar {
	t.Helper()
	g, errs := build(t, parent, text)
	require.Empty(t, errs)
	return g
}

func TestSequenceNormalization(t *testing.T) {
	t.Parallel()
	g := mustBuild(t, nil, `grammar G {
		rule main -> int = "a" ("b" ("c")) ("d" | "e") ("f")* ("g" => "h") [ "i" ] -> { 1 }
	}`)
	items := g.Rule("main").Variants[0].Patterns.Items
	require.Len(t, items, 7)
	var texts []string
	for _, item := range items[:3] {
		texts = append(texts, item.(*model.Literal).Text)
	}
	assert.Equal(t, []string{"a", "b", "c"}, texts)

	alt := items[3].(*model.Alternation)
	assert.Len(t, alt.Alternatives, 2)
	rep := items[4].(*model.Repeat)
	assert.Len(t, rep.Inner.(*model.Group).Inner.Items, 1)
	// A group containing a cut keeps its own commit scope.
	group := items[5].(*model.Group)
	assert.IsType(t, &model.Cut{}, group.Inner.Items[1])
	delim := items[6].(*model.Delimited)
	assert.Equal(t, ast.Bracket, delim.Kind)
}

func TestLiteralPieces(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text    string
		pieces  []string
		keyword bool
	}{
		{text: "let", pieces: []string{"let"}, keyword: true},
		{text: "?.", pieces: []string{"?", "."}},
		{text: "@detached", pieces: []string{"@", "detached"}, keyword: true},
		{text: "->", pieces: []string{"-", ">"}},
		{text: "x1", pieces: []string{"x1"}, keyword: true},
		{text: ""},
	}
	for _, tt := range tests {
		lit := model.NewLiteral(tt.text, source.Span{})
		if diff := cmp.Diff(tt.pieces, lit.Pieces); diff != "" {
			t.Errorf("pieces of %q mismatch (-want +got):\n%s", tt.text, diff)
		}
		assert.Equal(t, tt.keyword, lit.Keyword, tt.text)
	}
}

func TestResolution(t *testing.T) {
	t.Parallel()
	parent := mustBuild(t, nil, `grammar Base {
		pub rule number -> int64 = n:integer -> { n }
		rule word -> string = w:ident -> { w.Name }
	}`)
	g := mustBuild(t, parent, `grammar Child : Base {
		rule main(ident: rt.Rule[string]) -> int = a:ident b:number c:word d:string e:missing -> { 1 }
		rule word -> string = "w" -> { "w" }
	}`)
	require.Same(t, parent, g.Parent)

	items := g.Rule("main").Variants[0].Patterns.Items
	var kinds []model.ResolutionKind
	for _, item := range items {
		kinds = append(kinds, item.(*model.Binding).Inner.(*model.RuleCall).Resolution.Kind)
	}
	assert.Equal(t, []model.ResolutionKind{
		model.ResolvedParam,
		model.ResolvedInherited,
		model.ResolvedLocal,
		model.ResolvedBuiltin,
		model.Unresolved,
	}, kinds)

	number := items[1].(*model.Binding).Inner.(*model.RuleCall)
	assert.Same(t, parent, number.Resolution.Owner)
	assert.Same(t, parent.Rule("number"), number.Resolution.Rule)

	r, owner := g.Resolve("number")
	assert.Same(t, parent.Rule("number"), r)
	assert.Same(t, parent, owner)
	r, owner = g.Resolve("word")
	assert.Same(t, g.Rule("word"), r)
	assert.Same(t, g, owner)
	r, _ = g.Resolve("nothing")
	assert.Nil(t, r)
}

func TestBindingTypes(t *testing.T) {
	t.Parallel()
	g := mustBuild(t, nil, `grammar G {
		rule main(item: rt.Rule[Item], any) -> int =
			a:item b:item* c:item? d:any e:recover(item, ";") f:list(num) g:integer @ sp "kw" @ kw -> { 1 }
		rule num -> int64 = n:integer -> { n }
		rule list[T any](elem: rt.Rule[T]) -> []T = xs:elem+ -> { xs }
	}`)
	items := g.Rule("main").Variants[0].Patterns.Items
	require.Len(t, items, 8)

	typeOf := func(i int) string { return model.TypeOf(items[i]).String() }
	bindType := func(p model.Pattern) string {
		for {
			switch q := p.(type) {
			case *model.Binding:
				return q.Type.String()
			case *model.Repeat:
				p = q.Inner
			case *model.Optional:
				p = q.Inner
			case *model.SpanBinding:
				p = q.Inner
			default:
				t.Fatalf("no binding in %T", p)
			}
		}
	}

	assert.Equal(t, "Item", bindType(items[0]))
	assert.Equal(t, "[]Item", typeOf(1))
	assert.Equal(t, "Item", bindType(items[1]))
	assert.Equal(t, "*Item", typeOf(2))
	assert.Equal(t, "any", bindType(items[3]))
	assert.Equal(t, "*Item", bindType(items[4]))
	assert.Equal(t, "[]int64", bindType(items[5]))
	assert.Equal(t, "int64", bindType(items[6]))
	assert.Equal(t, "rt.Span", typeOf(6))
	assert.Equal(t, "rt.Unit", model.TypeOf(items[7].(*model.SpanBinding).Inner).String())

	integer := items[6].(*model.SpanBinding).Inner.(*model.Binding)
	assert.False(t, integer.Type.Spannable())
	assert.True(t, model.TypeOf(items[7].(*model.SpanBinding).Inner).Spannable())

	list := g.Rule("list")
	assert.True(t, list.IsGeneric())
	assert.Equal(t, "T", bindTypeOf(t, list.Variants[0].Patterns.Items[0]))
}

func bindTypeOf(t *testing.T, p model.Pattern) string {
	t.Helper()
	plus, ok := p.(*model.RepeatPlus)
	require.True(t, ok)
	return plus.Inner.(*model.Binding).Type.String()
}

func TestRuleMetadata(t *testing.T) {
	t.Parallel()
	g := mustBuild(t, nil, `grammar G {
		use "strconv"
		use pkg "example.com/pkg";

		/// Parses a thing.
		#[inline]
		pub rule thing[T any, U comparable](a: rt.Rule[T], b) -> T = x:a -> { x }
	}`)
	require.Len(t, g.Uses, 2)
	assert.Equal(t, model.Use{Path: "strconv", Pos: g.Uses[0].Pos}, *g.Uses[0])
	assert.Equal(t, "pkg", g.Uses[1].Alias)

	r := g.Rule("thing")
	assert.True(t, r.Pub)
	assert.Equal(t, []string{"Parses a thing."}, r.Doc())
	assert.NotNil(t, r.Attribute("inline"))
	assert.Nil(t, r.Attribute("cold"))
	require.Len(t, r.TypeParams, 2)
	assert.Equal(t, "comparable", r.TypeParams[1].Constraint)
	assert.Equal(t, "rt.Rule[T]", r.Param("a").Type)
	assert.Empty(t, r.Param("b").Type)
	assert.Nil(t, r.Param("c"))
}

func TestMissingParent(t *testing.T) {
	t.Parallel()
	g, errs := build(t, nil, `grammar Child : Base { rule main -> int = "x" -> { 1 } }`)
	require.Len(t, errs, 1)
	assert.Equal(t, "parent grammar 'Base' not found", errs[0].Unwrap().Error())
	assert.Nil(t, g.Parent)
	assert.Equal(t, "Base", g.ParentName)
}

func TestDuplicateRulesKeepFirst(t *testing.T) {
	t.Parallel()
	g := mustBuild(t, nil, `grammar G {
		rule a -> int = "x" -> { 1 }
		rule a -> string = "y" -> { "y" }
	}`)
	assert.Len(t, g.Rules, 2)
	assert.Equal(t, "int", g.Rule("a").ReturnType)
}

func TestWalk(t *testing.T) {
	t.Parallel()
	g := mustBuild(t, nil, `grammar G {
		rule main -> int = x:a* peek("p") not("n") recover(a, ";") paren(a) -> { 1 }
		rule a -> int = "a" -> { 1 }
	}`)
	var calls, lits int
	model.Walk(g.Rule("main").Variants[0].Patterns, func(p model.Pattern) bool {
		switch p.(type) {
		case *model.RuleCall:
			calls++
		case *model.Literal:
			lits++
		case *model.Not:
			return false
		}
		return true
	})
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, lits)
}
