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

package model

import (
	"go/ast"
	"go/parser"
	"sort"
	"strings"
)

// TypeKind identifies the shape of a [Type].
type TypeKind int8

const (
	// KindNamed is a Go type expression taken verbatim from the grammar or a
	// builtin, such as "int64" or "*ast.Expr".
	KindNamed TypeKind = iota + 1
	// KindUnit is the result of matching a literal, group or delimited
	// pattern.
	KindUnit
	// KindSpan is the result of a span binding.
	KindSpan
	// KindAny is the result of calling an untyped rule parameter.
	KindAny
	// KindSlice is the result of a repetition.
	KindSlice
	// KindOptional is the result of an optional or recover pattern.
	KindOptional
)

// Type is the static type of a pattern's result.
type Type struct {
	Kind TypeKind
	// Name is the Go type expression for KindNamed.
	Name string
	// Elem is the element type for KindSlice and KindOptional.
	Elem *Type
	// NotSpannable is set for types that a span binding cannot be applied
	// to.
	NotSpannable bool
}

// Common types.
var (
	UnitType = &Type{Kind: KindUnit}
	SpanType = &Type{Kind: KindSpan}
	AnyType  = &Type{Kind: KindAny}
)

// NamedType returns a type for the given Go type expression. Plain numeric
// and boolean types are not spannable.
func NamedType(goType string) *Type {
	return &Type{Kind: KindNamed, Name: goType, NotSpannable: isBasicScalar(goType)}
}

// SliceOf returns the type of a repetition of elem.
func SliceOf(elem *Type) *Type {
	return &Type{Kind: KindSlice, Elem: elem}
}

// OptionalOf returns the type of an optional elem.
func OptionalOf(elem *Type) *Type {
	return &Type{Kind: KindOptional, Elem: elem}
}

// Spannable reports whether a span binding may be applied to a pattern of
// this type.
func (t *Type) Spannable() bool {
	return t != nil && !t.NotSpannable
}

// Equal reports whether two types are identical.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindNamed:
		return t.Name == other.Name
	case KindSlice, KindOptional:
		return t.Elem.Equal(other.Elem)
	default:
		return true
	}
}

// GoType renders the type as a Go type expression, qualifying runtime types
// with the given package name.
func (t *Type) GoType(rt string) string {
	switch t.Kind {
	case KindNamed:
		return t.Name
	case KindUnit:
		return rt + ".Unit"
	case KindSpan:
		return rt + ".Span"
	case KindAny:
		return "any"
	case KindSlice:
		return "[]" + t.Elem.GoType(rt)
	case KindOptional:
		return "*" + t.Elem.GoType(rt)
	default:
		panic("internal error: unknown type kind")
	}
}

// String renders the type the way it appears in generated code.
func (t *Type) String() string {
	return t.GoType("rt")
}

var basicScalars = map[string]struct{}{
	"bool": {}, "byte": {}, "rune": {},
	"int": {}, "int8": {}, "int16": {}, "int32": {}, "int64": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {}, "uintptr": {},
	"float32": {}, "float64": {}, "complex64": {}, "complex128": {},
}

func isBasicScalar(goType string) bool {
	_, ok := basicScalars[strings.TrimSpace(goType)]
	return ok
}

// RuleElem returns the element type T if goType has the form pkg.Rule[T],
// where pkg is the name of the runtime package.
func RuleElem(goType, rt string) (string, bool) {
	expr, err := parser.ParseExpr(goType)
	if err != nil {
		return "", false
	}
	index, ok := expr.(*ast.IndexExpr)
	if !ok {
		return "", false
	}
	sel, ok := index.X.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Rule" {
		return "", false
	}
	if pkg, ok := sel.X.(*ast.Ident); !ok || pkg.Name != rt {
		return "", false
	}
	start, end := int(index.Index.Pos())-1, int(index.Index.End())-1
	return goType[start:end], true
}

// IsBasicGoType reports whether goType names a predeclared Go type, such as
// int or string, that cannot hold a parser.
func IsBasicGoType(goType string) bool {
	return isBasicScalar(goType) || strings.TrimSpace(goType) == "string"
}

// Substitute replaces every identifier in goType that is a key of bindings
// with the corresponding value. It is used to instantiate the return type of
// a generic rule at a call site.
func Substitute(goType string, bindings map[string]string) string {
	if len(bindings) == 0 {
		return goType
	}
	expr, err := parser.ParseExpr(goType)
	if err != nil {
		return goType
	}
	type edit struct {
		start, end int
		text       string
	}
	var edits []edit
	ast.Inspect(expr, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.SelectorExpr:
			// A qualified name never refers to a type parameter.
			return false
		case *ast.Ident:
			if repl, ok := bindings[n.Name]; ok {
				edits = append(edits, edit{int(n.Pos()) - 1, int(n.End()) - 1, repl})
			}
		}
		return true
	})
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		goType = goType[:e.start] + e.text + goType[e.end:]
	}
	return goType
}
