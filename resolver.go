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
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/bufbuild/grammarc/ast"
)

// ErrNotFound is returned by resolvers when no file exists at a path.
var ErrNotFound = errors.New("grammar file not found")

// Resolver is how a [Compiler] loads grammar files, both the ones named in
// a call to [Compiler.Compile] and the parents they extend.
type Resolver interface {
	FindFileByPath(string) (SearchResult, error)
}

// SearchResult is what a [Resolver] found for a path. Only one of Source
// and AST needs to be set; AST is preferred when both are.
type SearchResult struct {
	Source io.Reader
	AST    *ast.GrammarNode
}

// ResolverFunc adapts a function to the [Resolver] interface.
type ResolverFunc func(string) (SearchResult, error)

var _ Resolver = ResolverFunc(nil)

// FindFileByPath implements [Resolver].
func (f ResolverFunc) FindFileByPath(path string) (SearchResult, error) {
	return f(path)
}

// CompositeResolver tries each resolver in turn, returning the first result
// found. If none finds the path, the first error is returned.
type CompositeResolver []Resolver

var _ Resolver = CompositeResolver(nil)

// FindFileByPath implements [Resolver].
func (f CompositeResolver) FindFileByPath(path string) (SearchResult, error) {
	if len(f) == 0 {
		return SearchResult{}, ErrNotFound
	}
	var firstErr error
	for _, res := range f {
		r, err := res.FindFileByPath(path)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return SearchResult{}, firstErr
}

// SourceResolver loads grammar source. Relative paths are looked up in each
// of ImportPaths in order; absolute paths, and all paths when there are no
// import paths, are opened as given.
type SourceResolver struct {
	ImportPaths []string
	// Accessor opens a file. If nil, [os.Open] is used.
	Accessor func(string) (io.ReadCloser, error)
}

var _ Resolver = (*SourceResolver)(nil)

// FindFileByPath implements [Resolver].
func (r *SourceResolver) FindFileByPath(path string) (SearchResult, error) {
	if len(r.ImportPaths) == 0 || filepath.IsAbs(path) {
		reader, err := r.open(path)
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Source: reader}, nil
	}

	e := error(ErrNotFound)
	for _, importPath := range r.ImportPaths {
		reader, err := r.open(filepath.Join(importPath, path))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				e = err
				continue
			}
			return SearchResult{}, err
		}
		return SearchResult{Source: reader}, nil
	}
	return SearchResult{}, e
}

func (r *SourceResolver) open(path string) (io.ReadCloser, error) {
	accessor := r.Accessor
	if accessor == nil {
		accessor = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	reader, err := accessor(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &notFoundError{path: path, err: err}
	}
	return reader, err
}

type notFoundError struct {
	path string
	err  error
}

func (e *notFoundError) Error() string {
	return e.path + ": " + ErrNotFound.Error()
}

func (e *notFoundError) Unwrap() []error {
	return []error{ErrNotFound, e.err}
}

// SourceAccessorFromMap returns an accessor for [SourceResolver] that serves
// files from the given map of paths to contents.
func SourceAccessorFromMap(srcs map[string]string) func(string) (io.ReadCloser, error) {
	return func(path string) (io.ReadCloser, error) {
		src, ok := srcs[path]
		if !ok {
			return nil, fs.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(src)), nil
	}
}

// GrammarFileNames returns the file names under which the grammar with the
// given name is looked for, in order: the name as written, then in snake
// case.
func GrammarFileNames(name string) []string {
	names := []string{name + ".grammar"}
	if snake := strcase.ToSnake(name); snake != name {
		names = append(names, snake+".grammar")
	}
	return names
}
