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

package builtins

import (
	"slices"
	"sort"
)

// Builtin describes one primitive matcher.
type Builtin struct {
	// Name is the name grammars use to call the builtin.
	Name string `yaml:"name"`
	// Type is the Go type of the builtin's result, as it appears in
	// generated code.
	Type string `yaml:"type"`
	// Func is the name of the function in the runtime package that
	// implements the builtin.
	Func string `yaml:"func"`
	// Spannable is true if a span binding may be applied to a call of this
	// builtin.
	Spannable bool `yaml:"spannable,omitempty"`
	// Nullable is true if the builtin can succeed without consuming input.
	Nullable bool `yaml:"nullable,omitempty"`
}

// Registry is an immutable set of builtins, keyed by name.
type Registry struct {
	byName map[string]Builtin
}

// NewRegistry returns a registry containing the given builtins. If a name
// appears more than once, the last definition wins.
func NewRegistry(builtins ...Builtin) *Registry {
	r := &Registry{byName: make(map[string]Builtin, len(builtins))}
	for _, b := range builtins {
		r.byName[b.Name] = b
	}
	return r
}

// Lookup returns the builtin with the given name. It is safe to call on a nil
// registry, which contains nothing.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	if r == nil {
		return Builtin{}, false
	}
	b, ok := r.byName[name]
	return b, ok
}

// Has reports whether the registry contains the given name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the sorted names of all builtins in the registry.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every builtin in the registry, sorted by name.
func (r *Registry) All() []Builtin {
	names := r.Names()
	all := make([]Builtin, len(names))
	for i, name := range names {
		all[i] = r.byName[name]
	}
	return all
}

// With returns a new registry with the given builtins added, replacing any
// existing definitions with the same names.
func (r *Registry) With(builtins ...Builtin) *Registry {
	return NewRegistry(append(r.All(), builtins...)...)
}

// portableNames are the builtins every backend must provide.
var portableNames = []string{"ident", "integer", "string", "float"}

// Portable returns the minimum portable registry.
func Portable() *Registry {
	var list []Builtin
	for _, b := range goBuiltins {
		if slices.Contains(portableNames, b.Name) {
			list = append(list, b)
		}
	}
	return NewRegistry(list...)
}

// Go returns the full registry implemented by the Go runtime package.
func Go() *Registry {
	return NewRegistry(goBuiltins...)
}

var goBuiltins = []Builtin{
	{Name: "ident", Type: "rt.Ident", Func: "Identifier", Spannable: true},
	{Name: "string", Type: "rt.StringLit", Func: "String", Spannable: true},
	{Name: "char", Type: "rune", Func: "Char"},
	{Name: "bool", Type: "bool", Func: "Bool"},
	{Name: "integer", Type: "int64", Func: "Integer"},
	{Name: "float", Type: "float64", Func: "Float"},

	{Name: "i8", Type: "int8", Func: "I8"},
	{Name: "i16", Type: "int16", Func: "I16"},
	{Name: "i32", Type: "int32", Func: "I32"},
	{Name: "i64", Type: "int64", Func: "I64"},
	{Name: "u8", Type: "uint8", Func: "U8"},
	{Name: "u16", Type: "uint16", Func: "U16"},
	{Name: "u32", Type: "uint32", Func: "U32"},
	{Name: "u64", Type: "uint64", Func: "U64"},
	{Name: "f32", Type: "float32", Func: "F32"},
	{Name: "f64", Type: "float64", Func: "F64"},

	{Name: "hex_literal", Type: "uint64", Func: "HexLiteral"},
	{Name: "oct_literal", Type: "uint64", Func: "OctLiteral"},
	{Name: "bin_literal", Type: "uint64", Func: "BinLiteral"},

	{Name: "spanned_int", Type: "rt.Spanned[int64]", Func: "SpannedInt", Spannable: true},
	{Name: "spanned_float", Type: "rt.Spanned[float64]", Func: "SpannedFloat", Spannable: true},
	{Name: "spanned_string", Type: "rt.Spanned[string]", Func: "SpannedString", Spannable: true},
	{Name: "spanned_bool", Type: "rt.Spanned[bool]", Func: "SpannedBool", Spannable: true},
	{Name: "spanned_char", Type: "rt.Spanned[rune]", Func: "SpannedChar", Spannable: true},

	{Name: "alpha", Type: "string", Func: "Alpha", Spannable: true},
	{Name: "digit", Type: "string", Func: "Digit", Spannable: true},
	{Name: "alphanumeric", Type: "string", Func: "Alphanumeric", Spannable: true},
	{Name: "hex_digit", Type: "string", Func: "HexDigit", Spannable: true},
	{Name: "oct_digit", Type: "string", Func: "OctDigit", Spannable: true},
	{Name: "line_ending", Type: "string", Func: "LineEnding", Spannable: true},

	{Name: "empty", Type: "rt.Unit", Func: "Empty", Spannable: true, Nullable: true},
	{Name: "multispace0", Type: "rt.Unit", Func: "Multispace0", Spannable: true, Nullable: true},
	{Name: "eof", Type: "rt.Unit", Func: "EOF", Spannable: true, Nullable: true},
	{Name: "whitespace", Type: "rt.Unit", Func: "Whitespace", Spannable: true, Nullable: true},
}
