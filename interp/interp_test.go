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

package interp_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/grammarc/internal/testutil"
	"github.com/bufbuild/grammarc/interp"
	"github.com/bufbuild/grammarc/rt"
)

func sum(env interp.Env) (any, error) {
	return env["l"].(int64) + env["r"].(int64), nil
}

func TestLeftRecursionIsIterative(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Sum {
		pub rule expr -> int64 =
			l:expr "+" r:num -> { l + r }
		  | n:num -> { n }
		rule num -> int64 = n:integer -> { n }
	}`)
	m := interp.New(prog, interp.Actions{{Rule: "expr", Variant: 0}: sum})

	peaks := map[int]int{}
	for _, n := range []int{1, 10, 100, 5000} {
		src := strings.Repeat("1+", n-1) + "1"
		c := rt.NewContext(src, m.Options()...)
		v, c, err := m.ParseContext(c, "expr")
		require.NoError(t, err, "n = %d", n)
		assert.Equal(t, int64(n), v)
		peaks[n] = c.PeakDepth()
	}
	for n, peak := range peaks {
		assert.Equal(t, peaks[1], peak, "n = %d", n)
	}
}

func TestLeftRecursionAssociativity(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Diff {
		pub rule expr -> int64 =
			l:expr "-" r:num -> { l - r }
		  | n:num -> { n }
		rule num -> int64 = n:integer -> { n }
	}`)
	m := interp.New(prog, interp.Actions{
		{Rule: "expr", Variant: 0}: func(env interp.Env) (any, error) {
			return env["l"].(int64) - env["r"].(int64), nil
		},
	})
	v, err := m.Parse("expr", "10 - 3 - 2")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestCutScoping(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Let {
		pub rule stmt -> string =
			"let" => "mut"? name:ident "=" e:expr -> { "let" }
		  | "let" name:ident -> { "fallthrough" }
		  | e:expr -> { "expr" }
		pub rule group -> string =
			("begin" => "mid") "end" -> { "first" }
		  | "begin" w:ident -> { "second" }
		rule expr -> int64 = n:integer -> { n }
	}`)
	m := interp.New(prog, nil)

	v, err := m.Parse("stmt", "let mut x = 1")
	require.NoError(t, err)
	assert.Equal(t, "let", v)
	v, err = m.Parse("stmt", "let x = 1")
	require.NoError(t, err)
	assert.Equal(t, "let", v)
	v, err = m.Parse("stmt", "5")
	require.NoError(t, err)
	assert.Equal(t, "expr", v)

	// Past the cut, a failure does not fall through to later variants.
	_, err = m.Parse("stmt", "let x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected "="`)

	// A cut inside a group commits only the group.
	v, err = m.Parse("group", "begin w")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
	v, err = m.Parse("group", "begin mid end")
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestAlternationOrder(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Answer {
		pub rule answer -> bool = "yes" -> { true } | "no" -> { false }
		pub rule prefix -> string = "a" -> { "short" } | "a" "b" -> { "long" }
	}`)
	m := interp.New(prog, nil)

	v, err := m.Parse("answer", "no")
	require.NoError(t, err)
	assert.Equal(t, false, v)
	v, err = m.Parse("answer", "yes")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = m.Parse("answer", "maybe")
	assert.EqualError(t, err, `1:1: in rule 'answer': expected "no" or "yes"`)

	// The first variant wins even though the second would consume more.
	_, err = m.Parse("prefix", "a b")
	assert.EqualError(t, err, "1:3: expected end of input")
	v, err = m.Parse("prefix", "a")
	require.NoError(t, err)
	assert.Equal(t, "short", v)
}

func TestDelimiters(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Pair {
		pub rule pair -> []int64 = paren(a:integer "," b:integer) -> { []int64{a, b} }
	}`)
	m := interp.New(prog, interp.Actions{
		{Grammar: "Pair", Rule: "pair"}: func(env interp.Env) (any, error) {
			return []int64{env["a"].(int64), env["b"].(int64)}, nil
		},
	})
	for _, src := range []string{"(1,2)", "( 1 , 2 )"} {
		v, err := m.Parse("pair", src)
		require.NoError(t, err, src)
		assert.Equal(t, []int64{1, 2}, v, src)
	}

	_, err := m.Parse("pair", "(1,2")
	assert.EqualError(t, err, `1:5: in rule 'pair': expected ")" to close delimiter opened at 1:1`)
	_, err = m.Parse("pair", "1,2)")
	assert.EqualError(t, err, `1:1: in rule 'pair': expected "("`)
}

func TestRepetition(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar List {
		pub rule many -> []int64 = [ (e:integer)* ] -> { e }
		pub rule many1 -> []int64 = [ (e:integer)+ ] -> { e }
	}`)
	m := interp.New(prog, nil)

	v, err := m.Parse("many", "[ 1 2 3 ]")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, v)

	v, err = m.Parse("many", "[ ]")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = m.Parse("many1", "[ 7 ]")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7)}, v)
	_, err = m.Parse("many1", "[ ]")
	assert.Error(t, err)
}

func TestParameterAsCallTarget(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Params {
		rule twice(p) -> any = a:p b:p -> { a }
		rule twice_typed(p: rt.Rule[int64]) -> int64 = a:p b:p -> { a }
		rule offset(by: int64) -> int64 = n:integer -> { n + by }
		pub rule untyped -> any = v:twice(integer) -> { v }
		pub rule typed -> int64 = v:twice_typed(integer) -> { v }
		pub rule shifted -> int64 = v:offset(10) -> { v }
	}`)
	m := interp.New(prog, interp.Actions{
		{Rule: "offset"}: func(env interp.Env) (any, error) {
			return env["n"].(int64) + env["by"].(int64), nil
		},
	})

	v, err := m.Parse("untyped", "1 2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, err = m.Parse("typed", "3 4")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	v, err = m.Parse("shifted", "5")
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)

	v, err = m.Parse("twice", "6 7", rt.Erase(rt.Integer))
	require.NoError(t, err)
	assert.Equal(t, int64(6), v)
	_, err = m.Parse("twice", "6 7")
	assert.EqualError(t, err, `rule "twice" expects 1 argument(s), but got 0`)
	_, err = m.Parse("missing", "")
	assert.EqualError(t, err, `grammar Params has no rule "missing"`)
}

func TestRecover(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Stmts {
		pub rule stmts -> []any = (s:stmt)* -> { s }
		rule stmt -> any = r:recover(integer, ";") ";" -> { r }
	}`)
	m := interp.New(prog, nil)
	c := rt.NewContext("1; x y; 3;", m.Options()...)
	v, c, err := m.ParseContext(c, "stmts")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, int64(3)}, v)
	require.Len(t, c.Recovered(), 1)
	assert.Equal(t, "1:4: in rule 'stmt': expected integer", c.Recovered()[0].Error())
}

func TestLookahead(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Look {
		pub rule token -> string =
			peek(digit) n:integer -> { "number" }
		  | not("end") i:ident -> { "word" }
	}`)
	m := interp.New(prog, nil)
	for src, want := range map[string]string{
		"42":     "number",
		"zebra":  "word",
		"ending": "word",
	} {
		v, err := m.Parse("token", src)
		require.NoError(t, err, src)
		assert.Equal(t, want, v, src)
	}
	_, err := m.Parse("token", "end")
	assert.Error(t, err)
}

func TestInheritanceAndSkipper(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t,
		`grammar Base {
			rule num -> int64 = n:integer -> { n }
			rule ws -> rt.Unit = multispace0 -> { rt.Unit{} }
		}`,
		`grammar Child : Base {
			pub rule main -> int64 = "sum" n:num -> { n }
		}`,
	)
	m := interp.New(prog, nil)
	v, err := m.Parse("main", "sum \n 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, err = m.Parse("num", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// The ws rule replaces the default skipper, which would accept comments.
	_, err = m.Parse("main", "sum /* one */ 1")
	assert.Error(t, err)
}

func TestMaxDepth(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Nest {
		pub rule nest -> int = paren(nest) -> { 1 } | n:integer -> { 0 }
	}`)
	m := interp.New(prog, nil, rt.WithMaxDepth(3))
	_, err := m.Parse("nest", "((1))")
	require.NoError(t, err)
	_, err = m.Parse("nest", "((((1))))")
	require.Error(t, err)
	assert.True(t, rt.IsFatal(err))
	assert.Contains(t, err.Error(), "maximum rule depth 3 exceeded in rule 'nest'")
}

func TestFallbackEnv(t *testing.T) {
	t.Parallel()
	prog := testutil.Compile(t, `grammar Kv {
		pub rule kv -> string = k:ident "=" v:integer -> { k.Name + "=" + strconv.Itoa(int(v)) }
	}`)
	v, err := interp.New(prog, nil).Parse("kv", "a = 1")
	require.NoError(t, err)
	env, ok := v.(interp.Env)
	require.True(t, ok)
	assert.Equal(t, rt.Ident{Name: "a", Span: rt.Span{Start: 0, End: 1}}, env["k"])
	assert.Equal(t, int64(1), env["v"])
}
