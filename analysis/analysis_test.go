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

package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/grammarc/analysis"
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/internal/testutil"
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/reporter"
)

func analyze(t *testing.T, text string) (*analysis.Facts, []string) {
	t.Helper()
	g := testutil.BuildModel(t, nil, text)
	var facts *analysis.Facts
	errs, _ := testutil.Check(func(h *reporter.Handler) {
		facts, _ = analysis.Analyze(g, builtins.Go(), h)
	})
	return facts, errs
}

func TestClassify(t *testing.T) {
	t.Parallel()
	g := testutil.BuildModel(t, nil, `grammar Calc {
		rule expr -> int64 =
			l:expr "+" r:term -> { l + r }
		  | expr "-" term -> { 0 }
		  | t:term -> { t }
		  | peek("(") l:expr "*" r:term -> { l * r }
		rule term -> int64 = n:integer -> { n }
		rule wrap(expr: rt.Rule[int64]) -> int64 = e:expr -> { e }
	}`)
	c := analysis.Classify(g.Rule("expr"))
	assert.Equal(t, []int{2}, c.Base)
	assert.Equal(t, []int{0, 1, 3}, c.Recursive)
	assert.True(t, c.LeftRecursive())

	// A parameter that shadows a rule name is not a self call.
	assert.False(t, analysis.Classify(g.Rule("wrap")).LeftRecursive())
	assert.False(t, analysis.Classify(g.Rule("term")).LeftRecursive())

	expr := g.Rule("expr")
	tail, lhs := analysis.Tail(expr, expr.Variants[0])
	assert.Equal(t, "l", lhs)
	require.Len(t, tail, 2)
	assert.Equal(t, "+", tail[0].(*model.Literal).Text)

	tail, lhs = analysis.Tail(expr, expr.Variants[1])
	assert.Empty(t, lhs)
	assert.Len(t, tail, 2)

	// Leading lookaheads are skipped by classification but are not part of
	// the tail.
	tail, lhs = analysis.Tail(expr, expr.Variants[3])
	assert.Equal(t, "l", lhs)
	require.Len(t, tail, 2)
	assert.Equal(t, "*", tail[0].(*model.Literal).Text)
}

func TestNoBaseVariant(t *testing.T) {
	t.Parallel()
	for _, text := range []string{
		`grammar G { rule a -> int = a "x" -> { 1 } }`,
		`grammar G { rule a -> int = x:a "x" -> { 1 } | a "y" -> { 2 } }`,
		`grammar G { rule a -> int = a "x" -> { 1 } | a "y" "z" -> { 2 } }`,
	} {
		_, errs := analyze(t, text)
		assert.Equal(t, []string{"left-recursive rule 'a' requires at least one non-recursive base variant"}, errs, text)
	}
}

func TestLeadingMarkerBeforeSelfCall(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "cut",
			text: `grammar G { rule expr -> int64 = => l:expr "+" r:num -> { l + r } | n:num -> { n } rule num -> int64 = n:integer -> { n } }`,
			want: []string{"rule 'expr': '=>' before the left-recursive call is not supported; move it into a base variant or after the call"},
		},
		{
			name: "peek",
			text: `grammar G { rule pk -> int64 = peek(integer) l:pk "+" r:num -> { l + r } | n:num -> { n } rule num -> int64 = n:integer -> { n } }`,
			want: []string{"rule 'pk': 'peek(integer)' before the left-recursive call is not supported; move it into a base variant or after the call"},
		},
		{
			name: "not in base variant",
			text: `grammar G { rule a -> int = a "x" -> { 1 } | not("x") "y" -> { 2 } }`,
		},
		{
			name: "cut after call",
			text: `grammar G { rule a -> int = a "x" => "z" -> { 1 } | "y" -> { 2 } }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			facts, errs := analyze(t, tt.text)
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, errs)
			// Classification still treats the variant as recursive.
			if facts != nil {
				assert.True(t, facts.Rules[0].Classification.LeftRecursive())
			}
		})
	}
}

func TestFindCut(t *testing.T) {
	t.Parallel()
	g := testutil.BuildModel(t, nil, `grammar G {
		rule stmt -> int = "let" => "mut"? name "=" name -> { 1 } | name -> { 2 }
		rule name -> rt.Ident = i:ident -> { i }
	}`)
	stmt := g.Rule("stmt")
	pre, post, ok := analysis.FindCut(stmt.Variants[0].Patterns.Items)
	require.True(t, ok)
	assert.Len(t, pre, 1)
	assert.Len(t, post, 4)

	pre, post, ok = analysis.FindCut(stmt.Variants[1].Patterns.Items)
	assert.False(t, ok)
	assert.Len(t, pre, 1)
	assert.Empty(t, post)

	facts, errs := analyze(t, `grammar G { rule a -> int = "a" => "b" => "c" -> { 1 } }`)
	assert.Equal(t, []string{"a sequence may contain at most one cut operator"}, errs)
	assert.True(t, facts.Rules[0].Variants[0].HasCut)
}

func TestKeywords(t *testing.T) {
	t.Parallel()
	facts, errs := analyze(t, `grammar G {
		rule main -> int = "let" "?." "@detached" ("fn" | "_") not("mut") -> { 1 }
	}`)
	require.Empty(t, errs)
	assert.Equal(t, []string{"detached", "fn", "let", "mut"}, facts.KeywordList())
}

func TestNullability(t *testing.T) {
	t.Parallel()
	g := testutil.BuildModel(t, nil, `grammar G {
		rule a -> int = b c -> { 1 }
		rule b -> int = "x"? -> { 1 }
		rule c -> int = empty -> { 1 } | "c" -> { 2 }
		rule d -> int = a "d" -> { 1 }
		rule e -> int = paren(b) -> { 1 }
		rule f -> int = (b | "f") -> { 1 }
		rule g -> int = h -> { 1 }
		rule h -> int = g -> { 1 } | "h" -> { 2 }
		rule i(p: rt.Rule[int]) -> int = p -> { 1 }
		rule j -> int = recover("j", ";") -> { 1 }
		rule k -> int = b+ -> { 1 }
	}`)
	n := analysis.ComputeNullability(g, builtins.Go())
	want := map[string]bool{
		"a": true, "b": true, "c": true, "d": false, "e": false, "f": true,
		"g": false, "h": false, "i": false, "j": true, "k": true,
	}
	for name, nullable := range want {
		assert.Equal(t, nullable, n.Rule(g.Rule(name)), name)
	}
}

func TestInheritedNullability(t *testing.T) {
	t.Parallel()
	parent := testutil.BuildModel(t, nil, `grammar P { rule opt -> int = "x"? -> { 1 } }`)
	child := testutil.BuildModel(t, parent, `grammar C : P { rule main -> int = opt -> { 1 } }`)
	n := analysis.ComputeNullability(child, builtins.Go())
	assert.True(t, n.Rule(child.Rule("main")))
	assert.True(t, n.Rule(parent.Rule("opt")))
}

func TestHazards(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "nullable repeat",
			text: `grammar G { rule a -> int = ("x"?)* -> { 1 } }`,
			want: []string{"repetition body can match empty input (infinite loop)"},
		},
		{
			name: "nullable plus through rule",
			text: `grammar G { rule a -> int = b+ -> { 1 } rule b -> int = empty -> { 1 } }`,
			want: []string{"repetition body can match empty input (infinite loop)"},
		},
		{
			name: "nullable tail",
			text: `grammar G { rule a -> int = a "x"? -> { 1 } | "y" -> { 2 } }`,
			want: []string{"left-recursive variant of rule 'a' can match empty input after the recursive call (infinite loop)"},
		},
		{
			name: "fine",
			text: `grammar G { rule a -> int = a "x" -> { 1 } | "y"* "z" -> { 2 } }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, errs := analyze(t, tt.text)
			if tt.want == nil {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, tt.want, errs)
			}
		})
	}
}

func TestBindings(t *testing.T) {
	t.Parallel()
	g := testutil.BuildModel(t, nil, `grammar G {
		rule main(item: rt.Rule[Item]) -> int =
			a:item (k:item "=" v:item)* o:item? ("x" @ sx)? not(n:item) peek(p:item) (c:item | c:item "!") recover(r:item, ";") -> { 1 }
	}`)
	exports, errs := analysis.Bindings(g.Rule("main").Variants[0].Patterns.Items)
	require.Empty(t, errs)
	got := map[string]string{}
	var order []string
	for _, e := range exports {
		got[e.Name] = e.Type.String()
		order = append(order, e.Name)
	}
	assert.Equal(t, []string{"a", "k", "v", "o", "sx", "p", "c", "r"}, order)
	assert.Equal(t, map[string]string{
		"a":  "Item",
		"k":  "[]Item",
		"v":  "[]Item",
		"o":  "*Item",
		"sx": "*rt.Span",
		"p":  "Item",
		"c":  "Item",
		"r":  "*Item",
	}, got)
}

func TestBindingErrors(t *testing.T) {
	t.Parallel()
	g := testutil.BuildModel(t, nil, `grammar G {
		rule main(item: rt.Rule[Item], other: rt.Rule[Other]) -> int =
			a:item a:item (b:item | b:other) -> { 1 }
	}`)
	_, errs := analysis.Bindings(g.Rule("main").Variants[0].Patterns.Items)
	assert.Equal(t, []string{
		"duplicate binding 'a'",
		"binding 'b' has type Other here but type Item in an earlier alternative",
	}, testutil.Messages(errs))
}

func TestAnalyzeFacts(t *testing.T) {
	t.Parallel()
	facts, errs := analyze(t, `grammar Calc {
		pub rule expr -> int64 = l:expr "+" => r:term -> { l + r } | t:term -> { t }
		rule term -> int64 = n:integer -> { n }
	}`)
	require.Empty(t, errs)
	expr := facts.Rule(facts.Grammar.Rule("expr"))
	require.NotNil(t, expr)
	assert.Equal(t, analysis.Classification{Base: []int{1}, Recursive: []int{0}}, expr.Classification)
	rec := expr.Variants[0]
	assert.True(t, rec.Recursive)
	assert.True(t, rec.HasCut)
	assert.Equal(t, "l", rec.LHS)
	assert.Len(t, rec.Tail, 3)
	var names []string
	for _, b := range rec.Bindings {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"l", "r"}, names)
	assert.False(t, expr.Variants[1].Recursive)
	assert.False(t, expr.Nullable)
}
