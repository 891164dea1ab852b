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

package reporter

import (
	"errors"
	"fmt"

	"github.com/bufbuild/grammarc/source"
)

// ErrInvalidSource is a sentinel error that is returned by compilation in the
// event that syntax or semantic errors are encountered, but the configured
// ErrorReporter always returns nil.
var ErrInvalidSource = errors.New("compile failed: invalid grammar source")

// ErrorWithPos is an error about a grammar source file that includes
// information about the location in the file that caused the error.
//
// The value of Error() will contain both the position and Underlying error.
// The value of Unwrap() will only be the Underlying error.
type ErrorWithPos interface {
	error
	GetPosition() source.Span
	Unwrap() error
}

// Error creates a new ErrorWithPos from the given error and span.
func Error(span source.Spanner, err error) ErrorWithPos {
	return errorWithSpan{span: spanOf(span), underlying: err}
}

// Errorf creates a new ErrorWithPos whose underlying error is created using
// the given message format and arguments (via fmt.Errorf).
func Errorf(span source.Spanner, format string, args ...any) ErrorWithPos {
	return errorWithSpan{span: spanOf(span), underlying: fmt.Errorf(format, args...)}
}

type errorWithSpan struct {
	underlying error
	span       source.Span
}

func (e errorWithSpan) Error() string {
	if e.span.IsZero() {
		return e.underlying.Error()
	}
	return fmt.Sprintf("%s: %v", e.span, e.underlying)
}

// GetPosition implements the ErrorWithPos interface, supplying a location in
// grammar source that caused the error.
func (e errorWithSpan) GetPosition() source.Span {
	return e.span
}

// Unwrap implements the ErrorWithPos interface, supplying the underlying
// error. This error will not include location information.
func (e errorWithSpan) Unwrap() error {
	return e.underlying
}

var _ ErrorWithPos = errorWithSpan{}

func spanOf(s source.Spanner) source.Span {
	if s == nil {
		return source.Span{}
	}
	return s.Span()
}
