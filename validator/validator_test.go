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

package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/internal/testutil"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/validator"
)

func validate(t *testing.T, text string) (errs, warnings []string) {
	t.Helper()
	g := testutil.BuildModel(t, nil, text)
	return testutil.Check(func(h *reporter.Handler) {
		_ = validator.Validate(g, builtins.Go(), h)
	})
}

func TestValidGrammar(t *testing.T) {
	t.Parallel()
	errs, warnings := validate(t, `grammar Calc {
		pub rule main -> int64 = e:expr eof -> { e }
		rule expr -> int64 =
			l:expr "+" => r:term -> { l + r }
		  | t:term -> { t }
		rule term -> int64 =
			n:integer -> { n }
		  | paren(e:expr) -> { e }
		rule list[T any](item: rt.Rule[T]) -> []T =
			first:item ("," rest:item)* -> { append([]T{first}, rest...) }
		pub rule ints -> []int64 = xs:list(integer) -> { xs }
		pub rule named -> rt.Span = "let" ident @ sp -> { sp }
		rule ws -> rt.Unit = multispace0 -> { rt.Unit{} }
	}`)
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
}

func TestArity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		call string
		want []string
	}{
		{call: "sub", want: []string{"rule 'sub' expects 2 argument(s), but got 0"}},
		{call: "sub(integer)", want: []string{"rule 'sub' expects 2 argument(s), but got 1"}},
		{call: "sub(integer, integer)"},
		{call: "sub(integer, integer, integer)", want: []string{"rule 'sub' expects 2 argument(s), but got 3"}},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			t.Parallel()
			errs, _ := validate(t, `grammar G {
				rule sub(a: rt.Rule[int64], b: rt.Rule[int64]) -> int64 = x:a b -> { x }
				pub rule main -> int64 = v:`+tt.call+` -> { v }
			}`)
			if tt.want == nil {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, tt.want, errs)
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name  string
		rules string
		err   string
	}{
		{
			name:  "undefined rule",
			rules: `pub rule a -> int = x -> { 1 }`,
			err:   "undefined rule: 'x'",
		},
		{
			name:  "duplicate rule",
			rules: `pub rule a -> int = "x" -> { 1 } rule a -> int = "y" -> { 2 }`,
			err:   "duplicate rule 'a': first defined at TestValidationErrors_duplicate_rule.grammar:1:22",
		},
		{
			name: "too few arguments",
			rules: `rule sub(a: rt.Rule[int], b: rt.Rule[int]) -> int = x:a b -> { x }
				pub rule main -> int = v:sub(integer) -> { v }`,
			err: "rule 'sub' expects 2 argument(s), but got 1",
		},
		{
			name:  "builtin with arguments",
			rules: `pub rule a -> rt.Ident = x:ident(integer) -> { x }`,
			err:   "built-in rule 'ident' does not accept arguments",
		},
		{
			name:  "parameter with arguments",
			rules: `pub rule a(item: rt.Rule[int]) -> int = x:item(integer) -> { x }`,
			err:   "parameter 'item' does not accept arguments",
		},
		{
			name:  "calling a plain parameter",
			rules: `pub rule a(n: int) -> int = x:n -> { x }`,
			err:   "parameter 'n' has type int and cannot be called as a rule",
		},
		{
			name: "literal passed to rule parameter",
			rules: `rule wrap(item: rt.Rule[int]) -> int = x:item -> { x }
				pub rule a -> int = x:wrap("x") -> { x }`,
			err: `parameter 'item' of rule 'wrap' expects a rule, but got literal "x"`,
		},
		{
			name: "literal passed to untyped parameter",
			rules: `rule wrap(item) -> int = item -> { 1 }
				pub rule a -> int = x:wrap(42) -> { x }`,
			err: "parameter 'item' of rule 'wrap' expects a rule, but got literal 42",
		},
		{
			name: "rule passed to plain parameter",
			rules: `rule rep(n: int) -> int = "x" -> { n }
				pub rule a -> int = x:rep(integer) -> { x }`,
			err: "parameter 'n' of rule 'rep' has type int, but got rule 'integer'",
		},
		{
			name: "unknown argument",
			rules: `rule wrap(item: rt.Rule[int]) -> int = x:item -> { x }
				pub rule a -> int = x:wrap(nope) -> { x }`,
			err: "argument 'nope' is not a rule, parameter or built-in",
		},
		{
			name: "generic rule as argument",
			rules: `rule id[T any](item: rt.Rule[T]) -> T = x:item -> { x }
				rule wrap(item: rt.Rule[int]) -> int = x:item -> { x }
				pub rule a -> int = x:wrap(id) -> { x }`,
			err: "generic rule 'id' cannot be passed as an argument",
		},
		{
			name: "parameterized rule as argument",
			rules: `rule two(item: rt.Rule[int]) -> int = x:item item -> { x }
				rule wrap(item: rt.Rule[int]) -> int = x:item -> { x }
				pub rule a -> int = x:wrap(two) -> { x }`,
			err: "rule 'two' takes parameters and cannot be passed as an argument",
		},
		{
			name:  "span of number",
			rules: `pub rule a -> rt.Span = integer @ s -> { s }`,
			err:   "cannot bind the span of 'integer': values of type int64 do not support span extraction",
		},
		{
			name:  "cut in lookahead",
			rules: `pub rule a -> int = peek("x" => "y") "x" -> { 1 }`,
			err:   "cut operator is not allowed inside peek, not or recover",
		},
		{
			name:  "boolean literal",
			rules: `pub rule a -> int = "true" -> { 1 }`,
			err:   `boolean literal "true" cannot be used as a token: use the bool builtin instead`,
		},
		{
			name:  "numeric literal",
			rules: `pub rule a -> int = "42" -> { 1 }`,
			err:   `numeric literal "42" cannot be used as a token: use the integer builtin instead`,
		},
		{
			name:  "delimiter literal",
			rules: `pub rule a -> int = "(" ")" -> { 1 }`,
			err:   `invalid literal "(": use paren(...), [...] or {...} instead`,
		},
		{
			name:  "literal with whitespace",
			rules: `pub rule a -> int = "a b" -> { 1 }`,
			err:   `literal "a b" contains whitespace: split it into separate literals`,
		},
		{
			name:  "duplicate binding",
			rules: `pub rule a -> int64 = x:integer x:integer -> { x }`,
			err:   "duplicate binding 'x'",
		},
		{
			name:  "parameterized ws",
			rules: `rule ws(item: rt.Rule[rt.Unit]) -> rt.Unit = item -> { rt.Unit{} }`,
			err:   "rule 'ws' overrides whitespace skipping and must not take parameters",
		},
		{
			name:  "reserved binding name",
			rules: `pub rule a -> int64 = err:integer -> { err }`,
			err:   "binding name 'err' is reserved",
		},
		{
			name:  "keyword binding name",
			rules: `pub rule a -> int64 = type:integer -> { 1 }`,
			err:   "binding name 'type' is reserved",
		},
		{
			name:  "binding shadows parameter",
			rules: `pub rule a(item: rt.Rule[int]) -> int = item:item -> { item }`,
			err:   "binding 'item' shadows a parameter of rule 'a'",
		},
		{
			name:  "duplicate parameter",
			rules: `pub rule a(x: rt.Rule[int], x: rt.Rule[int]) -> int = v:x -> { v }`,
			err:   "duplicate parameter 'x' in rule 'a'",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			errs, _ := validate(t, "grammar G { "+testCase.rules+" }")
			assert.Contains(t, errs, testCase.err)
		})
	}
}

func TestAllErrorsReported(t *testing.T) {
	t.Parallel()
	errs, _ := validate(t, `grammar G {
		pub rule a -> int = x -> { 1 }
		pub rule b -> int = y -> { 2 }
	}`)
	assert.Equal(t, []string{"undefined rule: 'x'", "undefined rule: 'y'"}, errs)
}

func TestWarnings(t *testing.T) {
	t.Parallel()
	errs, warnings := validate(t, `grammar G {
		pub rule main -> int =
			"a" -> { 1 }
		  | "a" -> { 2 }
		  | "b" -> { 3 }
		  | "b" "c" -> { 4 }
		  | x:helper -> { x }
		rule helper -> int = "h" -> { 0 }
		rule orphan -> int = "o" -> { 0 }
		rule loop -> int = loop "o" -> { 0 } | "o" -> { 0 }
		rule _private -> int = "p" -> { 0 }
	}`)
	assert.Empty(t, errs)
	assert.Equal(t, []string{
		"duplicate alternative: alternative 2 of rule 'main' is identical to alternative 1",
		"alternative 4 of rule 'main' is shadowed by alternative 3, which matches a prefix of it",
		"rule 'loop' is never used",
		"rule 'orphan' is never used",
	}, warnings)
}

func TestFailFastStops(t *testing.T) {
	t.Parallel()
	g := testutil.BuildModel(t, nil, `grammar G {
		pub rule a -> int = x -> { 1 }
		pub rule b -> int = y -> { 2 }
	}`)
	var count int
	handler := reporter.NewHandler(reporter.NewReporter(func(reporter.ErrorWithPos) error {
		count++
		return assert.AnError
	}, nil))
	err := validator.Validate(g, builtins.Go(), handler)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, count)
}
