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

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a parse failure.
type Error struct {
	// Offset is the byte offset of the failure.
	Offset int
	Location
	// Rule is the innermost rule being parsed when the failure occurred.
	Rule string
	// Expected lists what would have allowed the parse to continue, sorted.
	Expected []string
	// Message is set for failures that are not described by an expected
	// set, such as an out-of-range number.
	Message string
	// Fatal errors are never backtracked over.
	Fatal bool
}

// Error implements [error].
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%d: ", e.Line, e.Column)
	if e.Rule != "" {
		fmt.Fprintf(&sb, "in rule '%s': ", e.Rule)
	}
	switch {
	case e.Message != "":
		sb.WriteString(e.Message)
	case len(e.Expected) > 0:
		sb.WriteString("expected ")
		sb.WriteString(listJoin(e.Expected, ", ", " or "))
	default:
		sb.WriteString("no match found")
	}
	return sb.String()
}

// IsFatal reports whether err is a fatal parse error. Fatal errors stop a
// parse immediately; alternation and repetition do not recover from them.
func IsFatal(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Fatal
}

// Fail records that want was expected at the current position and returns
// the corresponding error.
func (c *Context) Fail(want string) error {
	c.record(want, "")
	return c.newError([]string{want}, "")
}

// Failf records a failure with a custom message at the current position and
// returns the corresponding error.
func (c *Context) Failf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	c.record("", msg)
	return c.newError(nil, msg)
}

// Fatalf returns a fatal error at the current position.
func (c *Context) Fatalf(format string, args ...any) error {
	err := c.newError(nil, fmt.Sprintf(format, args...))
	err.Fatal = true
	return err
}

// Err returns the error for the farthest position at which a failure was
// recorded, or nil if none was.
func (c *Context) Err() error {
	if c.farthest < 0 {
		return nil
	}
	err := &Error{
		Offset:   c.farthest,
		Location: c.Location(c.farthest),
		Rule:     c.failRule,
		Expected: c.expected.Keys(),
		Message:  c.message,
	}
	return err
}

func (c *Context) newError(expected []string, msg string) *Error {
	return &Error{
		Offset:   c.pos,
		Location: c.Location(c.pos),
		Rule:     c.currentRule(),
		Expected: expected,
		Message:  msg,
	}
}

func (c *Context) record(want, msg string) {
	if c.quiet > 0 || c.pos < c.farthest {
		return
	}
	if c.pos > c.farthest {
		c.farthest = c.pos
		c.failRule = c.currentRule()
		c.expected.Clear()
		c.message = ""
	}
	if want != "" {
		c.expected.Insert(want)
	}
	if msg != "" && c.message == "" {
		c.message = msg
	}
}

// Run parses the whole input with rule. Trailing whitespace is skipped; any
// other unconsumed input is an error. On failure the returned error
// describes the farthest point the parse reached.
func Run[T any](c *Context, rule Rule[T]) (T, error) {
	v, err := rule(c)
	if err == nil {
		c.Skip()
		if c.AtEOF() {
			return v, nil
		}
		err = c.Fail("end of input")
	}
	var zero T
	if IsFatal(err) {
		return zero, err
	}
	if farthest := c.Err(); farthest != nil {
		return zero, farthest
	}
	return zero, err
}

func listJoin(list []string, sep, lastSep string) string {
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	default:
		return strings.Join(list[:len(list)-1], sep) + lastSep + list[len(list)-1]
	}
}
