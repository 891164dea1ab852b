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

package validator

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bufbuild/grammarc/ast"
	"github.com/bufbuild/grammarc/model"
	"github.com/bufbuild/grammarc/source"
)

func (v *validator) checkLiteral(lit *model.Literal) {
	switch text := lit.Text; {
	case text == "":
		v.errorf(lit, "empty literal is not supported")
	case text == "(" || text == ")" || text == "[" || text == "]" || text == "{" || text == "}":
		v.errorf(lit, "invalid literal %q: use paren(...), [...] or {...} instead", text)
	case text == "true" || text == "false":
		v.errorf(lit, "boolean literal %q cannot be used as a token: use the bool builtin instead", text)
	case startsWithDigit(text):
		v.errorf(lit, "numeric literal %q cannot be used as a token: use the integer builtin instead", text)
	case strings.IndexFunc(text, unicode.IsSpace) >= 0:
		v.errorf(lit, "literal %q contains whitespace: split it into separate literals", text)
	}
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

func (v *validator) checkCall(r *model.Rule, call *model.RuleCall) {
	res := call.Resolution
	switch res.Kind {
	case model.Unresolved:
		v.errorf(call, "undefined rule: '%s'", call.Name)
		return
	case model.ResolvedBuiltin:
		if len(call.Args) > 0 {
			v.errorf(call, "built-in rule '%s' does not accept arguments", call.Name)
		}
		return
	case model.ResolvedParam:
		if len(call.Args) > 0 {
			v.errorf(call, "parameter '%s' does not accept arguments", call.Name)
		}
		if t := res.Param.Type; t != "" && model.IsBasicGoType(t) {
			v.errorf(call, "parameter '%s' has type %s and cannot be called as a rule", call.Name, t)
		}
		return
	}

	callee := res.Rule
	if want := len(callee.Params); want != len(call.Args) {
		v.errorf(call, "rule '%s' expects %d argument(s), but got %d", call.Name, want, len(call.Args))
		return
	}
	for i, arg := range call.Args {
		v.checkArg(callee, callee.Params[i], arg)
	}
}

// checkArg checks one argument against the parameter it is passed to.
func (v *validator) checkArg(callee *model.Rule, param *model.Param, arg *model.Arg) {
	wantsRule := param.Type == "" || v.isRuleType(param.Type)
	if arg.Kind != ast.ArgIdent {
		if wantsRule {
			v.errorf(arg, "parameter '%s' of rule '%s' expects a rule, but got literal %s",
				param.Name, callee.Name, arg.Text)
		}
		return
	}

	res := arg.Resolution
	switch res.Kind {
	case model.Unresolved:
		v.errorf(arg, "argument '%s' is not a rule, parameter or built-in", arg.Text)
		return
	case model.ResolvedLocal, model.ResolvedInherited:
		if res.Rule.IsGeneric() {
			v.errorf(arg, "generic rule '%s' cannot be passed as an argument", arg.Text)
			return
		}
		if len(res.Rule.Params) > 0 {
			v.errorf(arg, "rule '%s' takes parameters and cannot be passed as an argument", arg.Text)
			return
		}
	case model.ResolvedParam:
		// A parameter holding a plain value may be passed on to a
		// parameter of the same kind.
		if argType := res.Param.Type; argType != "" && !v.isRuleType(argType) {
			if wantsRule {
				v.errorf(arg, "parameter '%s' of rule '%s' expects a rule, but '%s' has type %s",
					param.Name, callee.Name, arg.Text, argType)
			}
			return
		}
	}
	if param.Type != "" && model.IsBasicGoType(param.Type) {
		v.errorf(arg, "parameter '%s' of rule '%s' has type %s, but got rule '%s'",
			param.Name, callee.Name, param.Type, arg.Text)
	}
}

func (v *validator) isRuleType(goType string) bool {
	_, ok := model.RuleElem(goType, v.g.Runtime)
	return ok
}

// reservedNames are identifiers that generated parser code declares in
// every rule function.
var reservedNames = map[string]struct{}{
	"c": {}, "cut": {}, "err": {}, "rt": {},
}

func (v *validator) checkBindingName(r *model.Rule, name string, pos source.Span) {
	if _, ok := reservedNames[name]; ok || token.IsKeyword(name) {
		v.errorf(pos, "binding name '%s' is reserved", name)
		return
	}
	if r.Param(name) != nil {
		v.errorf(pos, "binding '%s' shadows a parameter of rule '%s'", name, r.Name)
	}
}
