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

// Package corpora runs golden tests over a directory of input files.
//
// Each input file is a test case. Its expected outputs live next to it, in
// files named after the input with an extra extension, such as
// calc.grammar.stderr. Setting the corpus's refresh environment variable to a
// doublestar pattern rewrites the outputs of matching cases instead of
// comparing them.
package corpora

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"
)

// Corpus describes a golden test corpus. It is table-driven testing where the
// table is the file system.
type Corpus struct {
	// Root is the directory holding the test cases, relative to the file
	// that calls [Corpus.Run].
	Root string
	// Refresh names the environment variable that requests refreshing
	// outputs. Its value is a doublestar pattern matched against case names.
	Refresh string
	// Extension is the file extension of test cases, without a dot.
	Extension string
	// Outputs are the outputs each test case produces.
	Outputs []Output
	// Test runs one test case, returning one string per element of Outputs.
	// path is relative to the directory of the file that calls [Corpus.Run].
	Test func(t *testing.T, path, text string) []string
}

// Output is one output of a test case.
type Output struct {
	// Extension is appended to the case's file name to name the file holding
	// this output. For a case foo.grammar and Extension "stderr", the file
	// is foo.grammar.stderr.
	Extension string
	// Optional outputs are only compared when their file exists. Otherwise a
	// missing file means the output is expected to be empty.
	Optional bool
	// Compare compares outputs. If nil, they must be byte-for-byte equal.
	Compare Compare
}

// Compare compares a produced output with the expected one. It returns an
// empty string if they match, and otherwise a description of the mismatch.
type Compare func(got, want string) string

// Run runs every case in the corpus as a subtest.
func (c Corpus) Run(t *testing.T) {
	testDir := callerDir(0)
	root := filepath.Join(testDir, c.Root)

	cases, err := doublestar.Glob(os.DirFS(root), "**/*."+c.Extension, doublestar.WithFilesOnly())
	if err != nil {
		t.Fatalf("corpora: listing %q: %v", root, err)
	}
	if len(cases) == 0 {
		t.Fatalf("corpora: no *.%s files in %q", c.Extension, root)
	}

	var refresh string
	if c.Refresh != "" {
		refresh = os.Getenv(c.Refresh)
		if !doublestar.ValidatePattern(refresh) {
			t.Fatalf("corpora: %s=%q is not a valid pattern", c.Refresh, refresh)
		}
	}
	if refresh != "" {
		t.Logf("corpora: refreshing outputs because %s=%s", c.Refresh, refresh)
	}

	for _, file := range cases {
		name := filepath.Join(c.Root, filepath.FromSlash(file))
		path := filepath.Join(testDir, name)
		t.Run(filepath.ToSlash(name), func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("corpora: loading %q: %v", path, err)
			}
			results := c.Test(t, name, string(data))
			if len(results) != len(c.Outputs) {
				t.Fatalf("corpora: test returned %d outputs, want %d", len(results), len(c.Outputs))
			}

			doRefresh, _ := doublestar.Match(refresh, filepath.ToSlash(name))
			for i, output := range c.Outputs {
				outPath := path + "." + output.Extension
				if doRefresh {
					if err := write(outPath, results[i]); err != nil {
						t.Errorf("corpora: refreshing %q: %v", outPath, err)
					}
					continue
				}

				want, err := os.ReadFile(outPath)
				switch {
				case errors.Is(err, fs.ErrNotExist) && output.Optional:
					continue
				case err != nil && !errors.Is(err, fs.ErrNotExist):
					t.Errorf("corpora: loading %q: %v", outPath, err)
					continue
				}
				compare := output.Compare
				if compare == nil {
					compare = defaultCompare
				}
				if diff := compare(results[i], string(want)); diff != "" {
					t.Errorf("output mismatch for %q:\n%s", outPath, diff)
				}
			}
		})
	}
	if refresh != "" {
		// Refreshed runs always fail, so that they are not mistaken for a
		// passing test.
		t.Fail()
	}
}

// write writes an output file, deleting it instead if the output is empty.
func write(path, output string) error {
	if output == "" {
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.WriteFile(path, []byte(output), 0o644)
}

func defaultCompare(got, want string) string {
	if got == want {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	if strings.TrimSpace(diff) == "" {
		return fmt.Sprintf("want %q, got %q", want, got)
	}
	return diff
}

func callerDir(skip int) string {
	_, file, _, ok := runtime.Caller(skip + 2)
	if !ok {
		panic("corpora: could not determine test file's directory")
	}
	return filepath.Dir(file)
}
