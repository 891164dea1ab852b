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
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/grammarc"
	"github.com/bufbuild/grammarc/analysis"
	"github.com/bufbuild/grammarc/model"
)

func newDumpCmd(opts *globalOptions) *cobra.Command {
	var (
		flags compileFlags
		what  string
	)

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the model, analysis facts or code generation plan of a grammar as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch what {
			case "model", "facts", "plan":
			default:
				return fmt.Errorf("unknown dump %q (expected model, facts or plan)", what)
			}
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			c := grammarc.Compiler{CheckOnly: what != "plan"}
			results, err := opts.compile(cmd.Context(), cmd.ErrOrStderr(), cfg, c, []string{absPath(args[0])})
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			for _, res := range inputResults(results) {
				var doc any
				switch what {
				case "model":
					doc = modelView(res.Grammar)
				case "facts":
					doc = factsView(res.Facts)
				case "plan":
					doc = res.Program
				}
				if err := enc.Encode(doc); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
			}
			return enc.Close()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&what, "what", "w", "model", "what to dump (model, facts, plan)")

	return cmd
}

type grammarDoc struct {
	Grammar string    `yaml:"grammar"`
	Parent  string    `yaml:"parent,omitempty"`
	Uses    []string  `yaml:"uses,omitempty"`
	Rules   []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Name       string       `yaml:"name"`
	Pub        bool         `yaml:"pub,omitempty"`
	Doc        []string     `yaml:"doc,omitempty"`
	TypeParams []string     `yaml:"type_params,omitempty"`
	Params     []string     `yaml:"params,omitempty"`
	Returns    string       `yaml:"returns"`
	Variants   []variantDoc `yaml:"variants"`
}

type variantDoc struct {
	Pattern string `yaml:"pattern"`
	Action  string `yaml:"action,omitempty"`
}

func modelView(g *model.Grammar) grammarDoc {
	doc := grammarDoc{Grammar: g.Name, Parent: g.ParentName}
	for _, u := range g.Uses {
		if u.Alias != "" {
			doc.Uses = append(doc.Uses, u.Alias+" "+u.Path)
		} else {
			doc.Uses = append(doc.Uses, u.Path)
		}
	}
	for _, r := range g.Rules {
		rd := ruleDoc{Name: r.Name, Pub: r.Pub, Doc: r.Doc(), Returns: r.ReturnType}
		for _, tp := range r.TypeParams {
			rd.TypeParams = append(rd.TypeParams, strings.TrimSpace(tp.Name+" "+tp.Constraint))
		}
		for _, p := range r.Params {
			rd.Params = append(rd.Params, strings.TrimSpace(p.Name+" "+p.Type))
		}
		for _, v := range r.Variants {
			rd.Variants = append(rd.Variants, variantDoc{
				Pattern: model.Format(v.Patterns),
				Action:  strings.TrimSpace(v.Action.Code),
			})
		}
		doc.Rules = append(doc.Rules, rd)
	}
	return doc
}

type factsDoc struct {
	Grammar  string         `yaml:"grammar"`
	Keywords []string       `yaml:"keywords,omitempty"`
	Rules    []ruleFactsDoc `yaml:"rules"`
}

type ruleFactsDoc struct {
	Name           string                  `yaml:"name"`
	Classification analysis.Classification `yaml:"classification"`
	Nullable       bool                    `yaml:"nullable,omitempty"`
	Variants       []variantFactsDoc       `yaml:"variants"`
}

type variantFactsDoc struct {
	Recursive bool     `yaml:"recursive,omitempty"`
	Tail      string   `yaml:"tail,omitempty"`
	LHS       string   `yaml:"lhs,omitempty"`
	HasCut    bool     `yaml:"has_cut,omitempty"`
	Bindings  []string `yaml:"bindings,omitempty"`
}

func factsView(f *analysis.Facts) factsDoc {
	doc := factsDoc{Grammar: f.Grammar.Name, Keywords: f.KeywordList()}
	for _, rf := range f.Rules {
		rd := ruleFactsDoc{Name: rf.Rule.Name, Classification: rf.Classification, Nullable: rf.Nullable}
		for _, vf := range rf.Variants {
			vd := variantFactsDoc{Recursive: vf.Recursive, LHS: vf.LHS, HasCut: vf.HasCut}
			if vf.Recursive {
				vd.Tail = model.Format(&model.Sequence{Items: vf.Tail})
			}
			for _, b := range vf.Bindings {
				vd.Bindings = append(vd.Bindings, b.Name)
			}
			rd.Variants = append(rd.Variants, vd)
		}
		doc.Rules = append(doc.Rules, rd)
	}
	return doc
}
