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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bufbuild/grammarc"
	"github.com/bufbuild/grammarc/config"
)

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var (
		flags  compileFlags
		output string
		check  bool
		stamp  bool
	)

	cmd := &cobra.Command{
		Use:   "build [file or pattern...]",
		Short: "Compile grammars and write the generated Go files",
		Long: `Compile grammars and write one Go file per grammar to the output directory.

Without arguments, the inputs come from the configuration file, or every
.grammar file under the current directory. Grammars named as parents are
found next to the grammars that extend them, or in the import paths. Code
generated for a grammar calls the code generated for its parent, so parents
are written to the output directory too.

All generated files share one Go package. Without --package, a grammar's
package is named after the root of its inheritance chain, and unrelated
grammars built together must be given a common --package.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if cmd.Flags().Changed("output") {
				cfg.Output = absPath(output)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			files, err := inputs(cfg, args)
			if err != nil {
				return err
			}

			buildID := uuid.NewString()
			log.Infof("build %s", buildID)
			c := grammarc.Compiler{}
			if stamp {
				c.BuildID = buildID
			}
			results, err := opts.compile(cmd.Context(), cmd.ErrOrStderr(), cfg, c, files)
			if err != nil {
				return err
			}
			outputs, err := planOutputs(cfg, results)
			if err != nil {
				return err
			}
			if check {
				return checkOutputs(cmd.OutOrStdout(), outputs)
			}
			return writeOutputs(cfg, outputs)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "directory to write generated files to")
	cmd.Flags().BoolVar(&check, "check", false, "print a diff and fail if generated files are out of date, without writing")
	cmd.Flags().BoolVar(&stamp, "stamp", false, "write the build ID into generated file headers")

	return cmd
}

// An output is a generated file and its destination.
type output struct {
	path string
	src  []byte
}

// outputName returns the name of the file generated for a grammar.
func outputName(grammar string) string {
	return strcase.ToSnake(grammar) + ".go"
}

// planOutputs returns the files to write for results, including the
// parents loaded as dependencies. All of them go to one directory, so they
// must agree on the package.
func planOutputs(cfg *config.Config, results []*grammarc.Result) ([]output, error) {
	dir := cfg.Path(cfg.Output)
	outputs := make([]output, len(results))
	packages := map[string][]string{}
	for i, res := range results {
		name := outputName(res.Grammar.Name)
		outputs[i] = output{
			path: filepath.Join(dir, name),
			src:  res.Source,
		}
		packages[res.Program.Package] = append(packages[res.Program.Package], name)
	}
	if len(packages) > 1 {
		desc := make([]string, 0, len(packages))
		for _, pkg := range slices.Sorted(maps.Keys(packages)) {
			desc = append(desc, fmt.Sprintf("%s (%s)", pkg, strings.Join(packages[pkg], ", ")))
		}
		return nil, fmt.Errorf("generated files would belong to different packages: %s; set a common package with --package",
			strings.Join(desc, ", "))
	}
	return outputs, nil
}

func writeOutputs(cfg *config.Config, outputs []output) error {
	if err := os.MkdirAll(cfg.Path(cfg.Output), 0o755); err != nil {
		return err
	}
	var eg errgroup.Group
	eg.SetLimit(max(cfg.MaxParallelism, 1))
	for _, out := range outputs {
		eg.Go(func() error {
			if err := os.WriteFile(out.path, out.src, 0o644); err != nil {
				return fmt.Errorf("failed to write generated file: %w", err)
			}
			log.Infof("wrote %s", out.path)
			return nil
		})
	}
	return eg.Wait()
}

// checkOutputs prints a unified diff for every output that differs from
// the file on disk, and fails if any does.
func checkOutputs(w io.Writer, outputs []output) error {
	var stale int
	for _, out := range outputs {
		current, err := os.ReadFile(out.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if bytes.Equal(current, out.src) {
			continue
		}
		stale++
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(current)),
			B:        difflib.SplitLines(string(out.src)),
			FromFile: out.path,
			ToFile:   out.path + " (generated)",
			Context:  3,
		})
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, diff); err != nil {
			return err
		}
	}
	if stale > 0 {
		return fmt.Errorf("%d generated file(s) out of date", stale)
	}
	return nil
}
