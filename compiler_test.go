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

package grammarc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/grammarc/internal/testutil"
	"github.com/bufbuild/grammarc/reporter"
)

const (
	baseGrammar = `grammar Base {
	pub rule num -> int64 = n:integer -> { n }
}`
	sumGrammar = `grammar Sum : Base {
	pub rule sum -> int64 = l:num "+" r:num -> { l + r }
}`
)

func compileMap(t *testing.T, c *Compiler, files map[string]string, paths ...string) ([]*Result, *reporter.Collector, error) {
	t.Helper()
	var collector reporter.Collector
	c.Resolver = &SourceResolver{Accessor: SourceAccessorFromMap(files)}
	c.Reporter = &collector
	results, err := c.Compile(context.Background(), paths...)
	return results, &collector, err
}

func TestCompileLoadsParent(t *testing.T) {
	t.Parallel()
	results, collector, err := compileMap(t, &Compiler{}, map[string]string{
		"calc/sum.grammar":  sumGrammar,
		"calc/Base.grammar": baseGrammar,
	}, "calc/sum.grammar")
	require.NoError(t, err, "%v", testutil.Messages(collector.Errors()))
	require.Len(t, results, 2)

	base, sum := results[0], results[1]
	assert.Equal(t, "Base", base.Grammar.Name)
	assert.Equal(t, "calc/Base.grammar", base.Path)
	assert.True(t, base.Dependency)
	assert.NotNil(t, base.Program)
	assert.Contains(t, string(base.Source), "func parseBaseNum(c *rt.Context)")
	assert.Contains(t, string(base.Source), "package base")

	assert.Equal(t, "Sum", sum.Grammar.Name)
	assert.False(t, sum.Dependency)
	assert.Same(t, base.Grammar, sum.Grammar.Parent)
	assert.Same(t, base.Program, sum.Program.Parent)
	assert.Contains(t, string(sum.Source), "parseBaseNum(c)")
	// Sum calls parseBaseNum directly, so both share the root's package.
	assert.Contains(t, string(sum.Source), "package base")
}

func TestCompileOrdersParentsFirst(t *testing.T) {
	t.Parallel()
	results, collector, err := compileMap(t, &Compiler{Package: "calc"}, map[string]string{
		"sum.grammar":  sumGrammar,
		"base.grammar": baseGrammar,
	}, "sum.grammar", "base.grammar")
	require.NoError(t, err, "%v", testutil.Messages(collector.Errors()))
	require.Len(t, results, 2)
	assert.Equal(t, "Base", results[0].Grammar.Name)
	assert.Equal(t, "Sum", results[1].Grammar.Name)
	for _, res := range results {
		assert.False(t, res.Dependency)
		assert.Contains(t, string(res.Source), "package calc")
	}
}

func TestCompileSnakeCaseParent(t *testing.T) {
	t.Parallel()
	results, collector, err := compileMap(t, &Compiler{}, map[string]string{
		"child.grammar":     `grammar Child : JSONBase { pub rule main -> int64 = n:num -> { n } }`,
		"json_base.grammar": `grammar JSONBase { pub rule num -> int64 = n:integer -> { n } }`,
	}, "child.grammar")
	require.NoError(t, err, "%v", testutil.Messages(collector.Errors()))
	require.Len(t, results, 2)
	assert.Equal(t, "json_base.grammar", results[0].Path)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name  string
		files map[string]string
		paths []string
		errs  []string
	}{
		{
			name:  "missing parent",
			files: map[string]string{"a.grammar": `grammar A : Missing { pub rule main -> int64 = n:integer -> { n } }`},
			paths: []string{"a.grammar"},
			errs:  []string{"parent grammar 'Missing' not found"},
		},
		{
			name: "wrong parent file",
			files: map[string]string{
				"a.grammar":    `grammar A : Base { pub rule main -> int64 = n:num -> { n } }`,
				"Base.grammar": `grammar Other { pub rule num -> int64 = n:integer -> { n } }`,
			},
			paths: []string{"a.grammar"},
			errs:  []string{"file Base.grammar defines grammar 'Other', not parent grammar 'Base'"},
		},
		{
			name: "cycle",
			files: map[string]string{
				"a.grammar": `grammar A : B { pub rule x -> int64 = n:integer -> { n } }`,
				"b.grammar": `grammar B : A { pub rule y -> int64 = n:integer -> { n } }`,
			},
			paths: []string{"a.grammar", "b.grammar"},
			errs:  []string{"grammar inheritance cycle: A -> B -> A"},
		},
		{
			name: "duplicate",
			files: map[string]string{
				"a.grammar": baseGrammar,
				"b.grammar": baseGrammar,
			},
			paths: []string{"a.grammar", "b.grammar"},
			errs:  []string{"grammar 'Base' is already defined in a.grammar"},
		},
		{
			name: "every file reported",
			files: map[string]string{
				"a.grammar": `grammar A { pub rule x -> int64 = n:nope -> { n } }`,
				"b.grammar": `grammar B { pub rule y -> int64 = n:missing -> { n } }`,
			},
			paths: []string{"a.grammar", "b.grammar"},
			errs: []string{
				"undefined rule: 'nope'",
				"undefined rule: 'missing'",
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			results, collector, err := compileMap(t, &Compiler{}, tc.files, tc.paths...)
			require.ErrorIs(t, err, reporter.ErrInvalidSource)
			assert.Nil(t, results)
			assert.ElementsMatch(t, tc.errs, testutil.Messages(collector.Errors()))
		})
	}
}

func TestCompileChildOfFailedParent(t *testing.T) {
	t.Parallel()
	_, collector, err := compileMap(t, &Compiler{}, map[string]string{
		"sum.grammar":  sumGrammar,
		"Base.grammar": `grammar Base { pub rule num -> int64 = n:nope -> { n } }`,
	}, "sum.grammar")
	require.ErrorIs(t, err, reporter.ErrInvalidSource)
	// Only the parent's own error is reported.
	assert.Len(t, collector.Errors(), 1)
}

func TestCompileCheckOnly(t *testing.T) {
	t.Parallel()
	results, collector, err := compileMap(t, &Compiler{CheckOnly: true}, map[string]string{
		"sum.grammar":  sumGrammar,
		"Base.grammar": baseGrammar,
	}, "sum.grammar")
	require.NoError(t, err, "%v", testutil.Messages(collector.Errors()))
	require.Len(t, results, 2)
	for _, res := range results {
		assert.NotNil(t, res.Facts)
		assert.Nil(t, res.Program)
		assert.Nil(t, res.Source)
	}
}

func TestCompileWarningsAsErrors(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"a.grammar": `grammar A {
			pub rule main -> int64 = n:integer -> { n }
			rule unused -> int64 = n:integer -> { n }
		}`,
	}

	results, collector, err := compileMap(t, &Compiler{}, files, "a.grammar")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, []string{"rule 'unused' is never used"}, testutil.Messages(collector.Warnings()))

	_, collector, err = compileMap(t, &Compiler{WarningsAsErrors: true}, files, "a.grammar")
	require.ErrorIs(t, err, reporter.ErrInvalidSource)
	assert.Equal(t, []string{"rule 'unused' is never used"}, testutil.Messages(collector.Errors()))
}

func TestCompileBuildID(t *testing.T) {
	t.Parallel()
	results, collector, err := compileMap(t, &Compiler{BuildID: "abc-123"}, map[string]string{
		"base.grammar": baseGrammar,
	}, "base.grammar")
	require.NoError(t, err, "%v", testutil.Messages(collector.Errors()))
	require.Len(t, results, 1)
	assert.Contains(t, string(results[0].Source), "// Build ID: abc-123")
}

func TestCompileFailFast(t *testing.T) {
	t.Parallel()
	var seen []string
	rep := reporter.FailFast(nil)
	c := &Compiler{
		Resolver: &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{
			"a.grammar": `grammar A { pub rule x -> int64 = n:nope -> { n } }`,
		})},
		Reporter: reporter.NewReporter(func(err reporter.ErrorWithPos) error {
			seen = append(seen, err.Unwrap().Error())
			return rep.Error(err)
		}, nil),
	}
	_, err := c.Compile(context.Background(), "a.grammar")
	require.Error(t, err)
	assert.NotErrorIs(t, err, reporter.ErrInvalidSource)
	assert.Equal(t, []string{"undefined rule: 'nope'"}, seen)
}

func TestCompileNothing(t *testing.T) {
	t.Parallel()
	results, err := (&Compiler{}).Compile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSourceResolver(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b", "x.grammar"), []byte("grammar X {}"), 0o600))

	read := func(sr SearchResult) string {
		data, err := io.ReadAll(sr.Source)
		require.NoError(t, err)
		if c, ok := sr.Source.(io.Closer); ok {
			require.NoError(t, c.Close())
		}
		return string(data)
	}

	r := &SourceResolver{ImportPaths: []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}}
	sr, err := r.FindFileByPath("x.grammar")
	require.NoError(t, err)
	assert.Equal(t, "grammar X {}", read(sr))

	sr, err = r.FindFileByPath(filepath.Join(dir, "b", "x.grammar"))
	require.NoError(t, err)
	assert.Equal(t, "grammar X {}", read(sr))

	_, err = r.FindFileByPath("y.grammar")
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, strings.HasSuffix(err.Error(), "y.grammar: "+ErrNotFound.Error()))

	composite := CompositeResolver{
		ResolverFunc(func(string) (SearchResult, error) { return SearchResult{}, ErrNotFound }),
		r,
	}
	sr, err = composite.FindFileByPath("x.grammar")
	require.NoError(t, err)
	assert.Equal(t, "grammar X {}", read(sr))

	_, err = CompositeResolver{}.FindFileByPath("x.grammar")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGrammarFileNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"Calc.grammar", "calc.grammar"}, GrammarFileNames("Calc"))
	assert.Equal(t, []string{"JSONBase.grammar", "json_base.grammar"}, GrammarFileNames("JSONBase"))
	assert.Equal(t, []string{"base.grammar"}, GrammarFileNames("base"))
}
