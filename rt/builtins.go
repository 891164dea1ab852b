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

// Identifier matches an identifier that is not a reserved keyword.
func Identifier(c *Context) (Ident, error) {
	start := c.Start()
	n := identLen(c.Rest())
	if n == 0 {
		return Ident{}, c.Fail("identifier")
	}
	name := c.Rest()[:n]
	if c.isKeyword(name) {
		return Ident{}, c.Fail("identifier")
	}
	c.Advance(n)
	return Ident{Name: name, Span: c.SpanFrom(start)}, nil
}

// String matches a Go string literal, either double-quoted with escapes or
// back-quoted raw.
func String(c *Context) (StringLit, error) {
	start := c.Start()
	rest := c.Rest()
	n := quotedLen(rest)
	if n == 0 || rest[0] == '\'' {
		return StringLit{}, c.Fail("string literal")
	}
	value, err := strconv.Unquote(rest[:n])
	if err != nil {
		return StringLit{}, c.Failf("invalid string literal %s", rest[:n])
	}
	c.Advance(n)
	return StringLit{Value: value, Span: c.SpanFrom(start)}, nil
}

// Char matches a Go rune literal such as 'a' or '\n'.
func Char(c *Context) (rune, error) {
	c.Skip()
	rest := c.Rest()
	n := quotedLen(rest)
	if n == 0 || rest[0] != '\'' {
		return 0, c.Fail("character literal")
	}
	value, err := strconv.Unquote(rest[:n])
	if err != nil {
		return 0, c.Failf("invalid character literal %s", rest[:n])
	}
	c.Advance(n)
	r, _ := decodeRune(value)
	return r, nil
}

// Bool matches true or false.
func Bool(c *Context) (bool, error) {
	c.Skip()
	rest := c.Rest()
	n := identLen(rest)
	switch rest[:n] {
	case "true":
		c.Advance(n)
		return true, nil
	case "false":
		c.Advance(n)
		return false, nil
	default:
		return false, c.Fail("boolean")
	}
}

// Integer matches a decimal integer with an optional leading minus sign.
// Digits may be separated by underscores.
func Integer(c *Context) (int64, error) {
	return signed[int64](c, 64)
}

// I8 matches a decimal integer that fits in an int8.
func I8(c *Context) (int8, error) { return signed[int8](c, 8) }

// I16 matches a decimal integer that fits in an int16.
func I16(c *Context) (int16, error) { return signed[int16](c, 16) }

// I32 matches a decimal integer that fits in an int32.
func I32(c *Context) (int32, error) { return signed[int32](c, 32) }

// I64 matches a decimal integer that fits in an int64.
func I64(c *Context) (int64, error) { return signed[int64](c, 64) }

// U8 matches a decimal integer that fits in a uint8.
func U8(c *Context) (uint8, error) { return unsigned[uint8](c, 8) }

// U16 matches a decimal integer that fits in a uint16.
func U16(c *Context) (uint16, error) { return unsigned[uint16](c, 16) }

// U32 matches a decimal integer that fits in a uint32.
func U32(c *Context) (uint32, error) { return unsigned[uint32](c, 32) }

// U64 matches a decimal integer that fits in a uint64.
func U64(c *Context) (uint64, error) { return unsigned[uint64](c, 64) }

func signed[T ~int8 | ~int16 | ~int32 | ~int64](c *Context, bits int) (T, error) {
	c.Skip()
	rest := c.Rest()
	n := numberLen(rest, true, false)
	if n == 0 {
		return 0, c.Fail("integer")
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(rest[:n], "_", ""), 10, bits)
	if err != nil {
		return 0, c.Failf("integer %s out of range for int%d", rest[:n], bits)
	}
	c.Advance(n)
	return T(v), nil
}

func unsigned[T ~uint8 | ~uint16 | ~uint32 | ~uint64](c *Context, bits int) (T, error) {
	c.Skip()
	rest := c.Rest()
	n := numberLen(rest, false, false)
	if n == 0 {
		return 0, c.Fail("integer")
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(rest[:n], "_", ""), 10, bits)
	if err != nil {
		return 0, c.Failf("integer %s out of range for uint%d", rest[:n], bits)
	}
	c.Advance(n)
	return T(v), nil
}

// Float matches a decimal number with an optional sign, fraction and
// exponent. Integers are accepted too.
func Float(c *Context) (float64, error) {
	return floating[float64](c, 64)
}

// F32 is like [Float] but produces a float32.
func F32(c *Context) (float32, error) { return floating[float32](c, 32) }

// F64 is like [Float].
func F64(c *Context) (float64, error) { return floating[float64](c, 64) }

func floating[T ~float32 | ~float64](c *Context, bits int) (T, error) {
	c.Skip()
	rest := c.Rest()
	n := numberLen(rest, true, true)
	if n == 0 {
		return 0, c.Fail("number")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(rest[:n], "_", ""), bits)
	if err != nil {
		return 0, c.Failf("number %s out of range for float%d", rest[:n], bits)
	}
	c.Advance(n)
	return T(v), nil
}

// HexLiteral matches a 0x-prefixed hexadecimal integer.
func HexLiteral(c *Context) (uint64, error) {
	return prefixed(c, "0x", 16, "hexadecimal literal")
}

// OctLiteral matches a 0o-prefixed octal integer.
func OctLiteral(c *Context) (uint64, error) {
	return prefixed(c, "0o", 8, "octal literal")
}

// BinLiteral matches a 0b-prefixed binary integer.
func BinLiteral(c *Context) (uint64, error) {
	return prefixed(c, "0b", 2, "binary literal")
}

func prefixed(c *Context, prefix string, base int, what string) (uint64, error) {
	c.Skip()
	rest := c.Rest()
	if len(rest) < len(prefix) || !strings.EqualFold(rest[:len(prefix)], prefix) {
		return 0, c.Fail(what)
	}
	digits := runLen(rest[len(prefix):], func(r rune) bool {
		return r == '_' || digitValue(r) < base
	})
	if digits == 0 {
		return 0, c.Fail(what)
	}
	n := len(prefix) + digits
	if r, _ := decodeRune(rest[n:]); isIdentPart(r) {
		return 0, c.Fail(what)
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(rest[len(prefix):n], "_", ""), base, 64)
	if err != nil {
		return 0, c.Failf("%s %s out of range", what, rest[:n])
	}
	c.Advance(n)
	return v, nil
}

// SpannedInt is like [Integer] but also returns the span of the match.
func SpannedInt(c *Context) (Spanned[int64], error) { return spanned(c, Integer) }

// SpannedFloat is like [Float] but also returns the span of the match.
func SpannedFloat(c *Context) (Spanned[float64], error) { return spanned(c, Float) }

// SpannedBool is like [Bool] but also returns the span of the match.
func SpannedBool(c *Context) (Spanned[bool], error) { return spanned(c, Bool) }

// SpannedChar is like [Char] but also returns the span of the match.
func SpannedChar(c *Context) (Spanned[rune], error) { return spanned(c, Char) }

// SpannedString is like [String] but returns the plain unquoted value.
func SpannedString(c *Context) (Spanned[string], error) {
	s, err := String(c)
	return Spanned[string]{Value: s.Value, Span: s.Span}, err
}

func spanned[T any](c *Context, match Rule[T]) (Spanned[T], error) {
	start := c.Start()
	v, err := match(c)
	if err != nil {
		return Spanned[T]{}, err
	}
	return Spanned[T]{Value: v, Span: c.SpanFrom(start)}, nil
}

// Alpha matches a run of letters.
func Alpha(c *Context) (string, error) { return class(c, unicode.IsLetter, "letter") }

// Digit matches a run of decimal digits.
func Digit(c *Context) (string, error) { return class(c, isDigit, "digit") }

// Alphanumeric matches a run of letters and digits.
func Alphanumeric(c *Context) (string, error) {
	return class(c, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }, "letter or digit")
}

// HexDigit matches a run of hexadecimal digits.
func HexDigit(c *Context) (string, error) {
	return class(c, func(r rune) bool { return digitValue(r) < 16 }, "hexadecimal digit")
}

// OctDigit matches a run of octal digits.
func OctDigit(c *Context) (string, error) {
	return class(c, func(r rune) bool { return digitValue(r) < 8 }, "octal digit")
}

func class(c *Context, fn func(rune) bool, what string) (string, error) {
	c.Skip()
	n := runLen(c.Rest(), fn)
	if n == 0 {
		return "", c.Fail(what)
	}
	s := c.Rest()[:n]
	c.Advance(n)
	return s, nil
}

// LineEnding matches "\n" or "\r\n". It does not skip whitespace first.
func LineEnding(c *Context) (string, error) {
	rest := c.Rest()
	switch {
	case strings.HasPrefix(rest, "\n"):
		c.Advance(1)
		return "\n", nil
	case strings.HasPrefix(rest, "\r\n"):
		c.Advance(2)
		return "\r\n", nil
	default:
		return "", c.Fail("line ending")
	}
}

// Empty matches nothing and always succeeds.
func Empty(*Context) (Unit, error) {
	return Unit{}, nil
}

// Multispace0 consumes whitespace, if there is any. It ignores the skipper.
func Multispace0(c *Context) (Unit, error) {
	c.Advance(runLen(c.Rest(), unicode.IsSpace))
	return Unit{}, nil
}

// EOF skips whitespace and succeeds if no input remains.
func EOF(c *Context) (Unit, error) {
	c.Skip()
	if !c.AtEOF() {
		return Unit{}, c.Fail("end of input")
	}
	return Unit{}, nil
}

// Whitespace succeeds without consuming input if the current position is
// separated from its surroundings: the previous or next character is
// whitespace, or the position is at either end of the input.
func Whitespace(c *Context) (Unit, error) {
	if c.pos == 0 || c.AtEOF() {
		return Unit{}, nil
	}
	next, _ := decodeRune(c.Rest())
	prev, _ := utf8.DecodeLastRuneInString(c.src[:c.pos])
	if unicode.IsSpace(next) || unicode.IsSpace(prev) {
		return Unit{}, nil
	}
	return Unit{}, c.Fail("whitespace")
}

// numberLen returns the length of the decimal number at the start of s, or
// zero. A number followed directly by an identifier character is not a
// number.
func numberLen(s string, sign, fraction bool) int {
	i := 0
	if sign && strings.HasPrefix(s, "-") {
		i++
	}
	digits := runLen(s[i:], func(r rune) bool { return isDigit(r) || r == '_' })
	if digits == 0 || s[i] == '_' {
		return 0
	}
	i += digits
	if fraction {
		if strings.HasPrefix(s[i:], ".") {
			if frac := runLen(s[i+1:], isDigit); frac > 0 {
				i += 1 + frac
			}
		}
		if strings.HasPrefix(s[i:], "e") || strings.HasPrefix(s[i:], "E") {
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			if exp := runLen(s[j:], isDigit); exp > 0 {
				i = j + exp
			}
		}
	} else if strings.HasPrefix(s[i:], ".") && runLen(s[i+1:], isDigit) > 0 {
		return 0
	}
	if r, _ := decodeRune(s[i:]); isIdentPart(r) {
		return 0
	}
	return i
}

// quotedLen returns the length of the quoted literal at the start of s,
// including its quotes, or zero if s does not start with a complete one.
func quotedLen(s string) int {
	if s == "" {
		return 0
	}
	quote := s[0]
	switch quote {
	case '`':
		if end := strings.IndexByte(s[1:], '`'); end >= 0 {
			return end + 2
		}
		return 0
	case '"', '\'':
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '\n':
				return 0
			case quote:
				return i + 1
			}
		}
	}
	return 0
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	default:
		return 16
	}
}
