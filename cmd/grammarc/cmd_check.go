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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bufbuild/grammarc"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var flags compileFlags

	cmd := &cobra.Command{
		Use:   "check [file or pattern...]",
		Short: "Validate grammars without generating code",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			files, err := inputs(cfg, args)
			if err != nil {
				return err
			}
			results, err := opts.compile(cmd.Context(), cmd.ErrOrStderr(), cfg, grammarc.Compiler{CheckOnly: true}, files)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d grammar(s) ok\n", len(inputResults(results)))
			return err
		},
	}

	flags.register(cmd)
	return cmd
}
