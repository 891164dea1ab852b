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

package codegen

import "github.com/bufbuild/grammarc/ast"

// Program is the lowered form of one grammar: everything needed to emit Go
// source or to interpret the grammar directly.
type Program struct {
	Grammar string `yaml:"grammar"`
	// Parent is the lowered parent grammar, if any. Calls to inherited
	// rules refer to functions declared by the parent's program.
	Parent  *Program `yaml:"-"`
	Package string   `yaml:"package"`
	// Runtime is the import path of the runtime package.
	Runtime string   `yaml:"runtime"`
	Imports []Import `yaml:"imports,omitempty"`
	// Keywords are reserved from the identifier builtin. They include the
	// keywords of every ancestor grammar.
	Keywords []string `yaml:"keywords,omitempty"`
	// Skipper is the function implementing the grammar's ws rule, or ""
	// for the runtime's default skipping.
	Skipper string  `yaml:"skipper,omitempty"`
	Rules   []*Rule `yaml:"rules"`
	// BuildID, if set, is stamped into the generated file's header.
	BuildID string `yaml:"build_id,omitempty"`
}

// Rule returns the program's own rule with the given name, or nil.
func (p *Program) Rule(name string) *Rule {
	for _, r := range p.Rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Import is a Go import declared by a use statement.
type Import struct {
	Alias string `yaml:"alias,omitempty"`
	Path  string `yaml:"path"`
}

// Rule is one lowered rule. A rule with tails is left-recursive: its arms
// are the base variants and its tails continue from an accumulated value.
type Rule struct {
	Name string `yaml:"name"`
	// Func is the name of the generated parse function.
	Func string `yaml:"func"`
	// Entry is the name of the exported wrapper, or "" if the rule has none.
	Entry      string      `yaml:"entry,omitempty"`
	Doc        []string    `yaml:"doc,omitempty"`
	TypeParams []TypeParam `yaml:"type_params,omitempty"`
	Params     []Param     `yaml:"params,omitempty"`
	ReturnType string      `yaml:"return_type"`
	Arms       []*Arm      `yaml:"arms"`
	Tails      []*Arm      `yaml:"tails,omitempty"`
}

// LeftRecursive reports whether the rule compiles to a left-recursion loop.
func (r *Rule) LeftRecursive() bool {
	return len(r.Tails) > 0
}

// TypeParam is a type parameter of a generic rule.
type TypeParam struct {
	Name       string `yaml:"name"`
	Constraint string `yaml:"constraint"`
}

// Param is a rule parameter. Type is the Go type; untyped grammar
// parameters are rule parameters producing any.
type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Rule is set if the parameter holds a parser rather than a value.
	Rule bool `yaml:"rule,omitempty"`
	// Untyped is set if the grammar gave no type for the parameter.
	Untyped bool `yaml:"untyped,omitempty"`
}

// Arm is one variant of a rule, or one tail of a left-recursive rule.
type Arm struct {
	// Variant is the index of the variant in the grammar's rule.
	Variant int `yaml:"variant"`
	// LHS is the name a tail binds the accumulated value to, or "".
	LHS    string `yaml:"lhs,omitempty"`
	Block  *Block `yaml:"block"`
	Action Action `yaml:"action"`
}

// Action is the code run when an arm matches.
type Action struct {
	Code string `yaml:"code"`
	// Expr is set if Code is a single Go expression rather than a list of
	// statements.
	Expr bool `yaml:"expr,omitempty"`
}

// Block is a sequence of steps together with the names it binds.
type Block struct {
	// Level is the closure nesting depth of the block. Names bound in a
	// nested block are suffixed with their level in generated code.
	Level int     `yaml:"level"`
	Vars  []Var   `yaml:"vars,omitempty"`
	Steps []*Step `yaml:"steps"`
	// Collect says how a nested block hands its bindings to the enclosing
	// block when it succeeds. Top-level blocks collect nothing.
	Collect Collect `yaml:"collect,omitempty"`
}

// Var is a name bound in a block.
type Var struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Collect is how a nested block's bindings reach its parent.
type Collect int8

const (
	// CollectNone discards the bindings.
	CollectNone Collect = iota
	// CollectAssign copies each binding to the parent.
	CollectAssign
	// CollectAppend appends each binding to a slice in the parent.
	CollectAppend
	// CollectAddress stores a pointer to each binding in the parent.
	CollectAddress
)

// StepKind identifies the kind of a [Step].
type StepKind int8

const (
	// StepLit matches literal text.
	StepLit StepKind = iota + 1
	// StepCall calls a rule, builtin or rule parameter.
	StepCall
	// StepCommit commits the innermost retry scope.
	StepCommit
	// StepSpan binds the span matched by Inner.
	StepSpan
	// StepDelimited matches Inner between a pair of delimiters.
	StepDelimited
	// StepRepeat matches Body repeatedly, at least Min times.
	StepRepeat
	// StepOptional matches Body at most once.
	StepOptional
	// StepChoice tries Arms in order.
	StepChoice
	// StepPeek matches Body without consuming input.
	StepPeek
	// StepNot succeeds if Body fails, without consuming input.
	StepNot
	// StepRecover matches Body, skipping to Sync on failure.
	StepRecover
)

var stepKindNames = [...]string{
	StepLit:       "lit",
	StepCall:      "call",
	StepCommit:    "commit",
	StepSpan:      "span",
	StepDelimited: "delimited",
	StepRepeat:    "repeat",
	StepOptional:  "optional",
	StepChoice:    "choice",
	StepPeek:      "peek",
	StepNot:       "not",
	StepRecover:   "recover",
}

// String implements [fmt.Stringer].
func (k StepKind) String() string {
	if int(k) < len(stepKindNames) && stepKindNames[k] != "" {
		return stepKindNames[k]
	}
	return "unknown"
}

// MarshalYAML renders the kind by name.
func (k StepKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Step is one matching operation. Which fields are set depends on Kind.
type Step struct {
	Kind StepKind `yaml:"kind"`
	// Into is the name the step's result is bound to, or "".
	Into string `yaml:"into,omitempty"`

	// Text and Keyword describe a literal.
	Text    string `yaml:"text,omitempty"`
	Keyword bool   `yaml:"keyword,omitempty"`

	Call *Call `yaml:"call,omitempty"`

	// Inner holds the steps of a span or delimited pattern, which run in the
	// enclosing block.
	Inner []*Step `yaml:"inner,omitempty"`
	// Open and Close are the delimiters of a delimited pattern.
	Open  string `yaml:"open,omitempty"`
	Close string `yaml:"close,omitempty"`

	// Body is the nested block of a repeat, optional, lookahead or recover.
	Body *Block `yaml:"body,omitempty"`
	// Min is the minimum number of repetitions.
	Min int `yaml:"min,omitempty"`
	// Arms are the alternatives of a choice.
	Arms []*Block `yaml:"arms,omitempty"`
	// What describes a negative lookahead's pattern in error messages.
	What string `yaml:"what,omitempty"`
	// Sync is the block a recover pattern skips to.
	Sync *Block `yaml:"sync,omitempty"`
	// Value is the Go type a recover body produces when the body is a
	// single call, or "" if the body produces nothing.
	Value string `yaml:"value,omitempty"`
}

// CallKind identifies what a [Call] invokes.
type CallKind int8

const (
	// CallRule calls a rule of this grammar or an ancestor.
	CallRule CallKind = iota + 1
	// CallBuiltin calls a runtime builtin.
	CallBuiltin
	// CallParam calls a rule parameter.
	CallParam
)

var callKindNames = [...]string{
	CallRule:    "rule",
	CallBuiltin: "builtin",
	CallParam:   "param",
}

// String implements [fmt.Stringer].
func (k CallKind) String() string {
	if int(k) < len(callKindNames) && callKindNames[k] != "" {
		return callKindNames[k]
	}
	return "unknown"
}

// MarshalYAML renders the kind by name.
func (k CallKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Call is an invocation of a rule, builtin or rule parameter.
type Call struct {
	Kind CallKind `yaml:"kind"`
	// Name is the callee's name in the grammar.
	Name string `yaml:"name"`
	// Func is the Go expression for the callee.
	Func string `yaml:"func"`
	// Grammar is the grammar that defines a called rule.
	Grammar string `yaml:"grammar,omitempty"`
	Args    []Arg  `yaml:"args,omitempty"`
}

// Arg is an argument of a call.
type Arg struct {
	// Kind is the lexical kind of the argument in the grammar.
	Kind ast.ArgKind `yaml:"-"`
	// Ref is set for identifiers and says what they refer to.
	Ref CallKind `yaml:"ref,omitempty"`
	// Name is the argument as written in the grammar.
	Name string `yaml:"name"`
	// Grammar is the grammar that defines a referenced rule.
	Grammar string `yaml:"grammar,omitempty"`
	// Func is the Go expression for the referenced rule, builtin or
	// parameter.
	Func string `yaml:"func,omitempty"`
	// Go is the Go expression passed for the argument.
	Go string `yaml:"go"`
}
