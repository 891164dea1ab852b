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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/grammarc"
	"github.com/bufbuild/grammarc/interp"
	"github.com/bufbuild/grammarc/rt"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		flags compileFlags
		rule  string
	)

	cmd := &cobra.Command{
		Use:   "run <grammar> [input]",
		Short: "Parse input with a grammar, without generating code",
		Long: `Parse input with a grammar by interpreting it, and print the result as YAML.

Actions are not compiled. Each variant yields the value its action names
when the action is a single binding or literal, and otherwise a map of the
variant's bindings. The input is read from standard input if no file or
"-" is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			results, err := opts.compile(cmd.Context(), cmd.ErrOrStderr(), cfg, grammarc.Compiler{}, []string{absPath(args[0])})
			if err != nil {
				return err
			}
			inputs := inputResults(results)
			if len(inputs) == 0 {
				return errors.New("no grammar compiled")
			}
			prog := inputs[len(inputs)-1].Program

			var src []byte
			if len(args) < 2 || args[1] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[1])
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			m := interp.New(prog, nil)
			c := rt.NewContext(string(src), m.Options()...)
			value, c, err := m.ParseContext(c, rule)
			for _, rerr := range c.Recovered() {
				fmt.Fprintln(cmd.ErrOrStderr(), "recovered:", rerr)
			}
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(value); err != nil {
				return fmt.Errorf("encode yaml: %w", err)
			}
			return enc.Close()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&rule, "rule", "r", "main", "rule to parse the input as")

	return cmd
}
