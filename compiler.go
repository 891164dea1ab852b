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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/semaphore"

	"github.com/bufbuild/grammarc/analysis"
	"github.com/bufbuild/grammarc/ast"
	"github.com/bufbuild/grammarc/builtins"
	"github.com/bufbuild/grammarc/codegen"
	"github.com/bufbuild/grammarc/internal/toposort"
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/parser"
	"github.com/bufbuild/grammarc/reporter"
	"github.com/bufbuild/grammarc/validator"
)

var log = commonlog.GetLogger("grammarc")

// Compiler handles compilation tasks, to turn grammar source files into Go
// parsers.
//
// The compilation process involves five steps for each grammar:
//  1. Parsing the source into an AST.
//  2. Building the semantic model, linked to the model of its parent.
//  3. Validating the model.
//  4. Analyzing the model for left recursion and nullability.
//  5. Lowering the model to a program and emitting it as Go source.
//
// Grammars named as parents but not given to [Compiler.Compile] are loaded
// through the resolver and compiled as dependencies.
type Compiler struct {
	// Resolves paths into grammar source. This is how the compiler loads the
	// files to be compiled as well as the parents they extend. This field is
	// the only required field.
	Resolver Resolver
	// The maximum parallelism to use when compiling. If unspecified or set to
	// a non-positive value, then min(runtime.NumCPU(), runtime.GOMAXPROCS(-1))
	// will be used.
	MaxParallelism int
	// A custom error and warning reporter. If unspecified a default reporter
	// is used, which reports every error and ignores all warnings.
	Reporter reporter.Reporter
	// If true, warnings are reported as errors.
	WarningsAsErrors bool

	// Builtins used to resolve calls. If nil, [builtins.Go] is used.
	Builtins *builtins.Registry
	// Package is the Go package name for generated files. If empty, each
	// grammar uses the lowercased name of its root ancestor, so a grammar is
	// always generated into the same package as the grammars it extends.
	Package string
	// RuntimeImport is the import path of the runtime package. If empty,
	// [codegen.DefaultRuntime] is used.
	RuntimeImport string
	// BuildID, if set, is stamped into each generated file's header.
	BuildID string
	// If true, compilation stops after analysis. Results have no program and
	// no generated source.
	CheckOnly bool
}

// Result is the outcome of compiling one grammar.
type Result struct {
	// Path is the path the grammar was loaded from.
	Path    string
	Grammar *model.Grammar
	Facts   *analysis.Facts
	// Program is nil if the compiler's CheckOnly flag is set.
	Program *codegen.Program
	// Source is the generated Go code. It is nil when the compiler's
	// CheckOnly flag is set. Dependencies have source too, since the code
	// generated for a grammar calls the functions generated for its parent.
	Source []byte
	// Dependency is true if the grammar was not named in the call to
	// [Compiler.Compile] but loaded because another grammar extends it.
	Dependency bool
}

// Compile compiles the grammars in the given files. The compiler's resolver
// is used to load them and any parents they extend. Results are ordered so
// that a parent always comes before the grammars that extend it.
//
// All grammars are compiled even if some fail, so that every error is
// reported. If any fails, the first error is returned and no results.
func (c *Compiler) Compile(ctx context.Context, files ...string) ([]*Result, error) {
	if len(files) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	par := c.MaxParallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(-1)
		cpus := runtime.NumCPU()
		if par > cpus {
			par = cpus
		}
	}

	h := reporter.NewHandler(c.Reporter)
	if c.WarningsAsErrors {
		h = reporter.NewStrictHandler(c.Reporter)
	}

	e := executor{
		c:       c,
		h:       h,
		s:       semaphore.NewWeighted(int64(par)),
		byName:  map[string]*unit{},
		byPath:  map[string]*unit{},
		results: map[string]*result{},
	}

	start := time.Now()
	inputs, err := e.load(ctx, files)
	if err != nil {
		return nil, err
	}
	order, err := e.link(inputs)
	if err != nil {
		return nil, err
	}
	log.Debugf("loaded %d grammar(s) in %s", len(order), time.Since(start))

	results := make([]*result, len(order))
	for i, u := range order {
		results[i] = e.compile(ctx, u)
	}

	out := make([]*Result, len(order))
	var firstErr error
	for i, r := range results {
		select {
		case <-r.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		out[i] = r.res
	}
	if firstErr != nil {
		return nil, firstErr
	}
	log.Debugf("compiled %d grammar(s) in %s", len(out), time.Since(start))
	return out, nil
}

// A unit is a parsed grammar file waiting to be compiled.
type unit struct {
	path       string
	node       *ast.GrammarNode
	parent     *unit
	dependency bool
}

func (u *unit) name() string {
	return u.node.Name.Name
}

type result struct {
	ready chan struct{}
	res   *Result
	err   error
}

func (r *result) fail(err error) {
	r.err = err
	close(r.ready)
}

func (r *result) complete(res *Result) {
	r.res = res
	close(r.ready)
}

type executor struct {
	c *Compiler
	h *reporter.Handler
	s *semaphore.Weighted

	// byName and byPath are only used before compilation starts, from a
	// single goroutine.
	byName map[string]*unit
	byPath map[string]*unit

	mu      sync.Mutex
	results map[string]*result
}

func (e *executor) builtins() *builtins.Registry {
	if e.c.Builtins != nil {
		return e.c.Builtins
	}
	return builtins.Go()
}

// load parses the input files concurrently.
func (e *executor) load(ctx context.Context, files []string) ([]*unit, error) {
	units := make([]*unit, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.s.Acquire(ctx, 1); err != nil {
				errs[i] = err
				return
			}
			defer e.s.Release(1)
			units[i], errs[i] = e.parse(file)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err == nil {
			continue
		}
		// Prefer the handler's error, which reflects the reporter's choice.
		if herr := e.h.Error(); herr != nil {
			return nil, herr
		}
		return nil, err
	}

	inputs := make([]*unit, 0, len(units))
	for _, u := range units {
		if prev := e.byPath[u.path]; prev != nil {
			continue
		}
		if prev := e.byName[u.name()]; prev != nil {
			if err := e.h.HandleErrorf(u.node.Name.Pos, "grammar '%s' is already defined in %s", u.name(), prev.path); err != nil {
				return nil, err
			}
			continue
		}
		e.byName[u.name()] = u
		e.byPath[u.path] = u
		inputs = append(inputs, u)
	}
	return inputs, e.h.Error()
}

func (e *executor) parse(path string) (*unit, error) {
	sr, err := e.c.Resolver.FindFileByPath(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if c, ok := sr.Source.(io.Closer); ok {
			_ = c.Close()
		}
	}()

	if sr.AST != nil {
		if sr.AST.File == nil || sr.AST.File.Path() != path {
			return nil, fmt.Errorf("search result for %q returned syntax tree for another file", path)
		}
		return &unit{path: path, node: sr.AST}, nil
	}
	node, err := parser.Parse(path, sr.Source, e.h.SubHandler())
	if err != nil {
		return nil, err
	}
	return &unit{path: path, node: node}, nil
}

// link finds the parent of every unit, loading parents that were not among
// the inputs, and returns all units ordered parents first.
func (e *executor) link(inputs []*unit) ([]*unit, error) {
	queue := inputs
	all := slices.Clone(inputs)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if u.node.Parent == nil {
			continue
		}
		name := u.node.Parent.Name
		if p := e.byName[name]; p != nil {
			u.parent = p
			continue
		}
		p, err := e.loadParent(u)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		u.parent = p
		e.byName[name] = p
		e.byPath[p.path] = p
		queue = append(queue, p)
		all = append(all, p)
	}
	if err := e.h.Error(); err != nil {
		return nil, err
	}

	order, err := toposort.Sort(all, (*unit).name, func(u *unit) iter.Seq[*unit] {
		return func(yield func(*unit) bool) {
			if u.parent != nil {
				yield(u.parent)
			}
		}
	})
	var cycle *toposort.CycleError[string]
	if errors.As(err, &cycle) {
		u := e.byName[cycle.Cycle[0]]
		if err := e.h.HandleErrorf(u.node.Parent.Pos, "grammar inheritance cycle: %s",
			strings.Join(cycle.Cycle, " -> ")); err != nil {
			return nil, err
		}
		return nil, e.h.Error()
	}
	return order, err
}

// loadParent finds the file defining the parent of u. It looks next to u
// first, then wherever the resolver looks for bare names. If no file is
// found, an error is reported and it returns nil.
func (e *executor) loadParent(u *unit) (*unit, error) {
	want := u.node.Parent.Name
	var candidates []string
	seen := map[string]bool{}
	for _, dir := range []string{filepath.Dir(u.path), ""} {
		for _, name := range GrammarFileNames(want) {
			path := filepath.Join(dir, name)
			if !seen[path] {
				seen[path] = true
				candidates = append(candidates, path)
			}
		}
	}

	for _, path := range candidates {
		p := e.byPath[path]
		if p == nil {
			var err error
			p, err = e.parse(path)
			if errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				if herr := e.h.Error(); herr != nil {
					return nil, herr
				}
				return nil, err
			}
			p.dependency = true
		}
		if p.name() != want {
			err := e.h.HandleErrorf(u.node.Parent.Pos, "file %s defines grammar '%s', not parent grammar '%s'",
				path, p.name(), want)
			return nil, err
		}
		log.Debugf("loaded parent grammar %s of %s from %s", want, u.name(), path)
		return p, nil
	}
	err := e.h.HandleErrorf(u.node.Parent.Pos, "parent grammar '%s' not found", want)
	return nil, err
}

func (e *executor) compile(ctx context.Context, u *unit) *result {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.results[u.name()]
	if r != nil {
		return r
	}

	r = &result{
		ready: make(chan struct{}),
	}
	e.results[u.name()] = r
	go func() {
		e.doCompile(ctx, u, r)
	}()
	return r
}

func (e *executor) doCompile(ctx context.Context, u *unit, r *result) {
	t := task{e: e, h: e.h.SubHandler()}
	if err := e.s.Acquire(ctx, 1); err != nil {
		r.fail(err)
		return
	}
	defer t.release()

	res, err := t.build(ctx, u)
	if err != nil {
		r.fail(err)
		return
	}
	r.complete(res)
}

// A compilation task. The executor has a semaphore that limits the number
// of concurrent, running tasks.
type task struct {
	e *executor
	h *reporter.Handler
	// If true, this task needs to acquire a semaphore permit before running.
	// If false, this task needs to release its semaphore permit on completion.
	released bool
}

func (t *task) release() {
	if !t.released {
		t.e.s.Release(1)
		t.released = true
	}
}

func (t *task) build(ctx context.Context, u *unit) (*Result, error) {
	parent, err := t.awaitParent(ctx, u)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reg := t.e.builtins()
	var opts model.Options
	opts.Builtins = reg
	if parent != nil {
		opts.Parent = parent.Grammar
	}
	g, err := model.Build(u.node, opts, t.h)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validator.Validate(g, reg, t.h); err != nil {
		return nil, err
	}
	facts, err := analysis.Analyze(g, reg, t.h)
	if err != nil {
		return nil, err
	}
	res := &Result{Path: u.path, Grammar: g, Facts: facts, Dependency: u.dependency}
	if t.e.c.CheckOnly {
		log.Debugf("checked grammar %s in %s", g.Name, time.Since(start))
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var parentProg *codegen.Program
	if parent != nil {
		parentProg = parent.Program
	}
	res.Program = codegen.Lower(g, facts, codegen.Options{
		Package: t.e.c.Package,
		Runtime: t.e.c.RuntimeImport,
		Parent:  parentProg,
		BuildID: t.e.c.BuildID,
	})
	res.Source, err = codegen.EmitGo(res.Program)
	if err != nil {
		if err := t.h.HandleError(reporter.Error(g, err)); err != nil {
			return nil, err
		}
		return nil, t.h.Error()
	}
	log.Debugf("compiled grammar %s from %s in %s", g.Name, u.path, time.Since(start))
	return res, nil
}

// awaitParent waits for the parent of u to compile. It gives up the task's
// semaphore permit while it waits, so that the parent can run.
func (t *task) awaitParent(ctx context.Context, u *unit) (*Result, error) {
	if u.parent == nil {
		return nil, nil
	}
	pr := t.e.compile(ctx, u.parent)

	t.release()
	select {
	case <-pr.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if pr.err != nil {
		return nil, pr.err
	}

	if err := t.e.s.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	t.released = false
	return pr.res, nil
}
