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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bufbuild/grammarc/source"
)

var zeroSpan source.Span

func TestTypes(t *testing.T) {
	t.Parallel()
	item := NamedType("*ast.Item")
	assert.Equal(t, "[]*ast.Item", SliceOf(item).String())
	assert.Equal(t, "**ast.Item", OptionalOf(item).String())
	assert.Equal(t, "[]x.Unit", SliceOf(UnitType).GoType("x"))
	assert.True(t, SliceOf(item).Equal(SliceOf(NamedType("*ast.Item"))))
	assert.False(t, SliceOf(item).Equal(OptionalOf(item)))
	assert.False(t, NamedType("a").Equal(NamedType("b")))

	assert.False(t, NamedType("int64").Spannable())
	assert.False(t, NamedType("bool").Spannable())
	assert.True(t, NamedType("string").Spannable())
	assert.True(t, NamedType("Expr").Spannable())
	assert.True(t, SliceOf(NamedType("int")).Spannable())
	assert.True(t, UnitType.Spannable())
}

func TestRuleElem(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		elem string
		ok   bool
	}{
		{in: "rt.Rule[T]", elem: "T", ok: true},
		{in: "rt.Rule[[]map[string]int]", elem: "[]map[string]int", ok: true},
		{in: "rt.Rule[ *ast.Node ]", elem: "*ast.Node", ok: true},
		{in: "other.Rule[T]"},
		{in: "Rule[T]"},
		{in: "func(*rt.Context) (int, error)"},
		{in: "int"},
		{in: "]["},
	}
	for _, tt := range tests {
		elem, ok := RuleElem(tt.in, "rt")
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.elem, elem, tt.in)
	}
	assert.True(t, IsBasicGoType("string"))
	assert.True(t, IsBasicGoType("uint8"))
	assert.False(t, IsBasicGoType("rt.Rule[T]"))
}

func TestSubstitute(t *testing.T) {
	t.Parallel()
	bindings := map[string]string{"T": "int64", "U": "*ast.Node"}
	assert.Equal(t, "[]int64", Substitute("[]T", bindings))
	assert.Equal(t, "map[int64][]*ast.Node", Substitute("map[T][]U", bindings))
	assert.Equal(t, "rt.Spanned[int64]", Substitute("rt.Spanned[T]", bindings))
	assert.Equal(t, "pkg.T", Substitute("pkg.T", bindings))
	assert.Equal(t, "Tree", Substitute("Tree", bindings))
	assert.Equal(t, "[]T", Substitute("[]T", nil))
}

func TestFormat(t *testing.T) {
	t.Parallel()
	seq := &Sequence{Items: []Pattern{
		NewLiteral("let", zeroSpan),
		&Cut{},
		&Optional{Inner: NewLiteral("mut", zeroSpan)},
		&Binding{Name: "n", Inner: &RuleCall{Name: "name"}},
		&Repeat{Inner: &Group{Inner: &Sequence{Items: []Pattern{
			NewLiteral(",", zeroSpan), &RuleCall{Name: "list", Args: []*Arg{{Text: "item"}, {Text: `"x"`}}},
		}}}},
		&Alternation{Alternatives: []*Sequence{
			{Items: []Pattern{&Peek{Inner: NewLiteral("a", zeroSpan)}}},
			{Items: []Pattern{&Not{Inner: NewLiteral("b", zeroSpan)}}},
		}},
		&SpanBinding{Name: "sp", Inner: &Recover{Body: &RuleCall{Name: "stmt"}, Sync: NewLiteral(";", zeroSpan)}},
	}}
	assert.Equal(t,
		`"let" => "mut"? n:name ("," list(item, "x"))* (peek("a") | not("b")) recover(stmt, ";") @ sp`,
		Format(seq))
}
