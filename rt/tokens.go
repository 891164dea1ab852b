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
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lit skips whitespace and then matches text exactly.
func Lit(c *Context, text string) (Unit, error) {
	c.Skip()
	if !strings.HasPrefix(c.Rest(), text) {
		return Unit{}, c.Fail(strconv.Quote(text))
	}
	c.Advance(len(text))
	return Unit{}, nil
}

// Keyword is like [Lit], but also requires that text not be followed by an
// identifier character, so that "in" does not match the start of "int".
func Keyword(c *Context, text string) (Unit, error) {
	c.Skip()
	rest := c.Rest()
	if !strings.HasPrefix(rest, text) {
		return Unit{}, c.Fail(strconv.Quote(text))
	}
	if r, _ := decodeRune(rest[len(text):]); isIdentPart(r) {
		return Unit{}, c.Fail(strconv.Quote(text))
	}
	c.Advance(len(text))
	return Unit{}, nil
}

// Open matches the opening delimiter of a delimited pattern.
func Open(c *Context, delim string) (Unit, error) {
	return Lit(c, delim)
}

// Close matches the closing delimiter of a delimited pattern that was
// opened at the given mark.
func Close(c *Context, open Mark, delim string) (Unit, error) {
	c.Skip()
	if strings.HasPrefix(c.Rest(), delim) {
		c.Advance(len(delim))
		return Unit{}, nil
	}
	loc := c.Location(int(open))
	msg := "expected " + strconv.Quote(delim) + " to close delimiter opened at " +
		strconv.Itoa(loc.Line) + ":" + strconv.Itoa(loc.Column)
	c.record(strconv.Quote(delim), msg)
	return Unit{}, c.newError(nil, msg)
}

func decodeRune(s string) (rune, int) {
	if s == "" {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// identLen returns the length of the identifier at the start of s, or zero.
func identLen(s string) int {
	r, size := decodeRune(s)
	if size == 0 || !isIdentStart(r) {
		return 0
	}
	return size + runLen(s[size:], isIdentPart)
}

// runLen returns the length of the longest prefix of s whose runes all
// satisfy fn.
func runLen(s string, fn func(rune) bool) int {
	for i, r := range s {
		if !fn(r) {
			return i
		}
	}
	return len(s)
}
