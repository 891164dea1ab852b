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

package rt

import "fmt"

// Unit is the result of patterns that produce no value.
type Unit struct{}

// Span is a half-open byte range of the input.
type Span struct {
	Start, End int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// String implements [fmt.Stringer].
func (s Span) String() string {
	return fmt.Sprintf("[%d:%d]", s.Start, s.End)
}

// Ident is a matched identifier.
type Ident struct {
	Name string
	Span Span
}

// String implements [fmt.Stringer].
func (i Ident) String() string {
	return i.Name
}

// StringLit is a matched string literal. Value holds the unquoted text.
type StringLit struct {
	Value string
	Span  Span
}

// String implements [fmt.Stringer].
func (s StringLit) String() string {
	return s.Value
}

// Spanned pairs a value with the span it was parsed from.
type Spanned[T any] struct {
	Value T
	Span  Span
}

// Rule is the signature of every generated rule function.
type Rule[T any] func(*Context) (T, error)

// Erase adapts a rule of any result type to a rule returning any. It is used
// when a rule is passed to an untyped rule parameter.
func Erase[T any](r Rule[T]) Rule[any] {
	return func(c *Context) (any, error) {
		v, err := r(c)
		return v, err
	}
}
