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

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/iancoleman/strcase"
)

var fileTemplate = template.Must(template.New("file").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by grammarc. DO NOT EDIT.
{{- if .BuildID}}
// Build ID: {{.BuildID}}
{{- end}}
// Source grammar: {{.Grammar}}

package {{.Package}}

import (
	rt {{quote .Runtime}}
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}{{quote .Path}}
{{- end}}
)

var {{.KeywordsVar}} = []string{ {{- range $i, $kw := .Keywords}}{{if $i}}, {{end}}{{quote $kw}}{{end -}} }
{{range .Rules}}
{{- range .Doc}}
// {{.}}
{{- else}}
// {{.Func}} parses rule {{.Name}}.
{{- end}}
func {{.Func}}{{.TypeParamDecl}}(c *rt.Context{{range .Params}}, {{.Name}} {{.Type}}{{end}}) (_ {{.ReturnType}}, err error) {
	if err = c.Enter({{quote .Name}}); err != nil {
		return
	}
	defer c.Exit()
{{.Body -}}
}
{{if .Entry}}
// {{.Entry}} parses all of src as rule {{.Name}}. On failure, the error
// describes the farthest position any alternative reached.
func {{.Entry}}{{.TypeParamDecl}}(src string{{range .Params}}, {{.Name}} {{.Type}}{{end}}) ({{.ReturnType}}, error) {
	c := rt.NewContext(src, {{$.Options}})
	return rt.Run(c, func(c *rt.Context) ({{.ReturnType}}, error) {
		return {{.Func}}{{.TypeArgs}}(c{{range .Params}}, {{.Name}}{{end}})
	})
}
{{end}}
{{end -}}
`))

type fileData struct {
	*Program
	Imports     []Import
	KeywordsVar string
	Options     string
	Rules       []ruleData
}

type ruleData struct {
	*Rule
	TypeParamDecl string
	TypeArgs      string
	Body          string
}

// EmitGo renders prog as a gofmt-ed Go source file. Imports requested by
// the grammar that the generated code does not reference are dropped.
//
// Action code is copied into the output verbatim, so an error from EmitGo
// usually means an action is not valid Go.
func EmitGo(prog *Program) ([]byte, error) {
	data := fileData{
		Program:     prog,
		Imports:     prog.Imports,
		KeywordsVar: KeywordsVar(prog.Grammar),
	}
	options := []string{"rt.WithKeywords(" + data.KeywordsVar + "...)"}
	if prog.Skipper != "" {
		options = append(options, "rt.SkipWith("+prog.Skipper+")")
	}
	data.Options = strings.Join(options, ", ")
	for _, r := range prog.Rules {
		data.Rules = append(data.Rules, ruleData{
			Rule:          r,
			TypeParamDecl: typeParamDecl(r.TypeParams),
			TypeArgs:      typeArgs(r.TypeParams),
			Body:          renderBody(r),
		})
	}

	src, err := execute(&data)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, prog.Grammar+".go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("generated code for grammar %s is not valid Go: %w", prog.Grammar, err)
	}
	if used := usedImports(file, prog.Imports); len(used) != len(prog.Imports) {
		log.Debugf("grammar %s: dropping %d unused imports", prog.Grammar, len(prog.Imports)-len(used))
		data.Imports = used
		if src, err = execute(&data); err != nil {
			return nil, err
		}
	}
	out, err := format.Source(src)
	if err != nil {
		return nil, fmt.Errorf("generated code for grammar %s is not valid Go: %w", prog.Grammar, err)
	}
	return out, nil
}

// KeywordsVar returns the name of the variable holding a grammar's keywords
// in generated code.
func KeywordsVar(grammar string) string {
	return strcase.ToLowerCamel(grammar) + "Keywords"
}

func execute(data *fileData) ([]byte, error) {
	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render grammar %s: %w", data.Grammar, err)
	}
	return buf.Bytes(), nil
}

func typeParamDecl(params []TypeParam) string {
	if len(params) == 0 {
		return ""
	}
	decls := make([]string, len(params))
	for i, p := range params {
		decls[i] = p.Name + " " + p.Constraint
	}
	return "[" + strings.Join(decls, ", ") + "]"
}

func typeArgs(params []TypeParam) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

var versionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// importName guesses the package name of an import path the way goimports
// does when the package cannot be loaded.
func importName(imp Import) string {
	if imp.Alias != "" {
		return imp.Alias
	}
	name := path.Base(imp.Path)
	if versionSuffix.MatchString(name) {
		name = path.Base(path.Dir(imp.Path))
	}
	name = strings.TrimPrefix(name, "go-")
	if i := strings.IndexAny(name, ".-"); i > 0 {
		name = name[:i]
	}
	return name
}

func usedImports(file *ast.File, imports []Import) []Import {
	referenced := map[string]bool{}
	ast.Inspect(file, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				referenced[id.Name] = true
			}
		}
		return true
	})
	var used []Import
	for _, imp := range imports {
		name := importName(imp)
		if name == "_" || name == "." || referenced[name] {
			used = append(used, imp)
		}
	}
	return used
}

// varName is the name a binding has in generated code. Names bound in
// nested closures carry their nesting level so that collecting them into the
// enclosing closure's variables does not shadow.
func varName(name string, level int) string {
	if level == 0 {
		return name
	}
	return name + "_" + strconv.Itoa(level)
}

type bodyWriter struct {
	buf   strings.Builder
	marks int
}

func renderBody(r *Rule) string {
	var w bodyWriter
	if !r.LeftRecursive() {
		w.printf("return rt.Choice[%s](c", r.ReturnType)
		w.arms(r.ReturnType, r.Arms)
		w.printf(")\n")
		return w.buf.String()
	}
	w.printf("return rt.LeftRec[%s](c, func(c *rt.Context) (%s, error) {\n", r.ReturnType, r.ReturnType)
	w.printf("return rt.Choice[%s](c", r.ReturnType)
	w.arms(r.ReturnType, r.Arms)
	w.printf(")\n}")
	for _, tail := range r.Tails {
		lhs := tail.LHS
		if lhs == "" {
			lhs = "_"
		}
		w.printf(",\nfunc(c *rt.Context, cut *rt.Cut, %s %s) (_ %s, err error) {\n", lhs, r.ReturnType, r.ReturnType)
		w.armBody(tail)
		w.printf("}")
	}
	w.printf(")\n")
	return w.buf.String()
}

func (w *bodyWriter) printf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *bodyWriter) arms(ret string, arms []*Arm) {
	for _, arm := range arms {
		w.printf(",\nfunc(c *rt.Context, cut *rt.Cut) (_ %s, err error) {\n", ret)
		w.armBody(arm)
		w.printf("}")
	}
}

func (w *bodyWriter) armBody(arm *Arm) {
	w.block(arm.Block)
	switch {
	case arm.Action.Code == "":
		w.printf("return\n")
	case arm.Action.Expr:
		w.printf("return %s, nil\n", arm.Action.Code)
	default:
		w.printf("%s\n", arm.Action.Code)
	}
}

func (w *bodyWriter) block(b *Block) {
	for _, v := range b.Vars {
		w.printf("var %s %s\n", varName(v.Name, b.Level), v.Type)
	}
	for _, s := range b.Steps {
		w.step(s, b.Level)
	}
	for _, v := range b.Vars {
		name, parent := varName(v.Name, b.Level), varName(v.Name, b.Level-1)
		switch b.Collect {
		case CollectNone:
			w.printf("_ = %s\n", name)
		case CollectAssign:
			w.printf("%s = %s\n", parent, name)
		case CollectAppend:
			w.printf("%s = append(%s, %s)\n", parent, parent, name)
		case CollectAddress:
			w.printf("%s = &%s\n", parent, name)
		}
	}
}

// closure writes b as an rt.Arm[rt.Unit].
func (w *bodyWriter) closure(b *Block) {
	w.printf("func(c *rt.Context, cut *rt.Cut) (_ rt.Unit, err error) {\n")
	w.block(b)
	w.printf("return\n}")
}

func (w *bodyWriter) check(into, format string, args ...any) {
	w.printf("if %s, err = ", into)
	w.printf(format, args...)
	w.printf("; err != nil {\nreturn\n}\n")
}

func (w *bodyWriter) step(s *Step, level int) {
	into := "_"
	if s.Into != "" {
		into = varName(s.Into, level)
	}
	switch s.Kind {
	case StepLit:
		fn := "rt.Lit"
		if s.Keyword {
			fn = "rt.Keyword"
		}
		w.check(into, "%s(c, %s)", fn, strconv.Quote(s.Text))
	case StepCall:
		w.check(into, "%s", callExpr(s.Call))
	case StepCommit:
		w.printf("cut.Commit()\n")
	case StepSpan:
		w.marks++
		start := "start" + strconv.Itoa(w.marks)
		w.printf("%s := c.Start()\n", start)
		for _, inner := range s.Inner {
			w.step(inner, level)
		}
		w.printf("%s = c.SpanFrom(%s)\n", into, start)
	case StepDelimited:
		w.marks++
		open := "open" + strconv.Itoa(w.marks)
		w.printf("%s := c.Start()\n", open)
		w.check("_", "rt.Open(c, %s)", strconv.Quote(s.Open))
		for _, inner := range s.Inner {
			w.step(inner, level)
		}
		w.check("_", "rt.Close(c, %s, %s)", open, strconv.Quote(s.Close))
	case StepRepeat:
		fn := "rt.Many"
		if s.Min > 0 {
			fn = "rt.Many1"
		}
		w.printf("if _, err = %s[rt.Unit](c, ", fn)
		w.closure(s.Body)
		w.printf("); err != nil {\nreturn\n}\n")
	case StepOptional:
		w.printf("if _, err = rt.Optional[rt.Unit](c, ")
		w.closure(s.Body)
		w.printf("); err != nil {\nreturn\n}\n")
	case StepChoice:
		w.printf("if _, err = rt.Choice[rt.Unit](c")
		for _, arm := range s.Arms {
			w.printf(", ")
			w.closure(arm)
		}
		w.printf("); err != nil {\nreturn\n}\n")
	case StepPeek:
		w.printf("if _, err = rt.Peek[rt.Unit](c, ")
		w.closure(s.Body)
		w.printf("); err != nil {\nreturn\n}\n")
	case StepNot:
		w.printf("if _, err = rt.Not[rt.Unit](c, %s, ", strconv.Quote(s.What))
		w.closure(s.Body)
		w.printf("); err != nil {\nreturn\n}\n")
	case StepRecover:
		if s.Value != "" {
			w.printf("if %s, err = rt.Recover[%s](c, func(c *rt.Context, _ *rt.Cut) (%s, error) {\nreturn %s\n}, ",
				into, s.Value, s.Value, callExpr(s.Body.Steps[0].Call))
		} else {
			w.printf("if %s, err = rt.Recover[rt.Unit](c, ", into)
			w.closure(s.Body)
			w.printf(", ")
		}
		w.closure(s.Sync)
		w.printf("); err != nil {\nreturn\n}\n")
	default:
		panic(fmt.Sprintf("internal error: unknown step kind %v", s.Kind))
	}
}

func callExpr(call *Call) string {
	var sb strings.Builder
	sb.WriteString(call.Func)
	sb.WriteString("(c")
	for _, arg := range call.Args {
		sb.WriteString(", ")
		sb.WriteString(arg.Go)
	}
	sb.WriteString(")")
	return sb.String()
}
