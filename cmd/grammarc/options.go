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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/bufbuild/grammarc"
	"github.com/bufbuild/grammarc/config"
	"github.com/bufbuild/grammarc/report"
	"github.com/bufbuild/grammarc/reporter"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	dir        string
	configPath string
	verbosity  int
	logFile    string
	compact    bool
}

// compileFlags override configuration values for commands that compile.
type compileFlags struct {
	pkg              string
	importPaths      []string
	maxParallelism   int
	runtimeImport    string
	warningsAsErrors bool
}

func (f *compileFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.pkg, "package", "", "Go package name of generated files")
	flags.StringSliceVarP(&f.importPaths, "import-path", "I", nil, "directory to search for parent grammars; may be repeated")
	flags.IntVarP(&f.maxParallelism, "max-parallelism", "j", 0, "maximum number of grammars compiled at once")
	flags.StringVar(&f.runtimeImport, "rt-import", "", "import path of the parser runtime")
	flags.BoolVar(&f.warningsAsErrors, "warnings-as-errors", false, "treat warnings as errors")
}

// apply copies the flags that were set on the command line into cfg.
func (f *compileFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("package") {
		cfg.Package = f.pkg
	}
	if flags.Changed("import-path") {
		cfg.ImportPaths = cfg.ImportPaths[:0]
		for _, p := range f.importPaths {
			cfg.ImportPaths = append(cfg.ImportPaths, absPath(p))
		}
	}
	if flags.Changed("max-parallelism") {
		cfg.MaxParallelism = f.maxParallelism
	}
	if flags.Changed("rt-import") {
		cfg.RuntimeImport = f.runtimeImport
	}
	if flags.Changed("warnings-as-errors") {
		cfg.WarningsAsErrors = f.warningsAsErrors
	}
}

// setup changes to the requested directory, loads the configuration and
// configures logging.
func (o *globalOptions) setup() (*config.Config, error) {
	if o.dir != "" {
		if err := os.Chdir(o.dir); err != nil {
			return nil, err
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	path := o.configPath
	if path == "" {
		path, _ = config.Find(wd)
	}
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default(wd)
	}

	verbosity := max(cfg.Log.Verbosity, o.verbosity)
	logFile := cfg.Log.File
	if o.logFile != "" {
		logFile = absPath(o.logFile)
	}
	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	if path != "" {
		log.Debugf("using configuration %s", path)
	}
	return cfg, nil
}

// inputs returns the grammar files to compile. Arguments are used if given,
// each either a path or a doublestar pattern. Otherwise the configured input
// patterns are matched in the configuration's directory.
func inputs(cfg *config.Config, args []string) ([]string, error) {
	var files []string
	if len(args) > 0 {
		for _, arg := range args {
			if !hasMeta(arg) {
				files = append(files, absPath(arg))
				continue
			}
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			for _, m := range matches {
				files = append(files, absPath(m))
			}
		}
	} else {
		fsys := os.DirFS(cfg.Dir)
		for _, pattern := range cfg.Inputs {
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
			}
			for _, m := range matches {
				files = append(files, filepath.Join(cfg.Dir, filepath.FromSlash(m)))
			}
		}
	}
	slices.Sort(files)
	files = slices.Compact(files)
	if len(files) == 0 {
		return nil, errors.New("no grammar files to compile")
	}
	return files, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// compile runs the compiler over files with the given configuration, then
// prints all diagnostics to stderr.
func (o *globalOptions) compile(
	ctx context.Context,
	stderr io.Writer,
	cfg *config.Config,
	c grammarc.Compiler,
	files []string,
) ([]*grammarc.Result, error) {
	var collector reporter.Collector
	c.Resolver = &grammarc.SourceResolver{ImportPaths: cfg.ImportPaths}
	c.Reporter = &collector
	c.MaxParallelism = cfg.MaxParallelism
	c.WarningsAsErrors = cfg.WarningsAsErrors
	c.Package = cfg.Package
	c.RuntimeImport = cfg.RuntimeImport

	log.Infof("compiling %d grammar file(s)", len(files))
	results, err := c.Compile(ctx, files...)

	renderer := report.Renderer{Compact: o.compact, WarningsAreErrors: cfg.WarningsAsErrors}
	if _, _, rerr := renderer.Render(report.FromCollector(&collector), stderr); rerr != nil && err == nil {
		err = rerr
	}
	return results, err
}

// inputResults drops the results of grammars only loaded as parents.
func inputResults(results []*grammarc.Result) []*grammarc.Result {
	return slices.DeleteFunc(slices.Clone(results), func(res *grammarc.Result) bool {
		return res.Dependency
	})
}
