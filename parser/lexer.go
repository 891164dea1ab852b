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

package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bufbuild/grammarc/source"
)

type tokenKind int8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokInt
	tokFloat
	tokPunct
	tokDoc
	tokError
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string literal"
	case tokInt:
		return "int literal"
	case tokFloat:
		return "float literal"
	case tokPunct:
		return "punctuation"
	case tokDoc:
		return "doc comment"
	default:
		return "error"
	}
}

type token struct {
	kind tokenKind
	// text is the token as written. For tokDoc, it is the comment text
	// without the leading slashes.
	text string
	// value is the unquoted value of a string literal, or the error message
	// of a tokError.
	value string
	span  source.Span
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) isPunct(text string) bool {
	return t.is(tokPunct, text)
}

func (t token) isKeyword(text string) bool {
	return t.is(tokIdent, text)
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokIdent, tokPunct:
		return fmt.Sprintf("'%s'", t.text)
	default:
		return t.kind.String()
	}
}

// twoCharPuncts are the punctuation tokens longer than one rune.
var twoCharPuncts = []string{"->", "=>", "#["}

const utf8BOM = "\uFEFF"

// lexer produces tokens on demand. It also exposes raw scanning of balanced
// Go text, which the parser uses for types and action blocks.
type lexer struct {
	file *source.File
	text string
	pos  int
}

func newLexer(file *source.File) *lexer {
	text := file.Text()
	pos := 0
	// if file has UTF8 byte order marker preface, skip it
	if strings.HasPrefix(text, utf8BOM) {
		pos = len(utf8BOM)
	}
	return &lexer{file: file, text: text, pos: pos}
}

func (l *lexer) span(start int) source.Span {
	return l.file.Span(start, l.pos)
}

func (l *lexer) readRune() (rune, int) {
	if l.pos >= len(l.text) {
		return -1, 0
	}
	r, size := utf8.DecodeRuneInString(l.text[l.pos:])
	l.pos += size
	return r, size
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.text) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.text[l.pos:])
	return r
}

// skipTrivia skips whitespace and comments, stopping before a /// doc comment.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.text) {
		rest := l.text[l.pos:]
		switch {
		case strings.HasPrefix(rest, "///") && !strings.HasPrefix(rest, "////"):
			return
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end == -1 {
				l.pos = len(l.text)
			} else {
				l.pos += end + 1
			}
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end == -1 {
				l.pos = len(l.text)
			} else {
				l.pos += end + 4
			}
		default:
			r, size := utf8.DecodeRuneInString(rest)
			if !unicode.IsSpace(r) {
				return
			}
			l.pos += size
		}
	}
}

// next lexes the next token.
func (l *lexer) next() token {
	l.skipTrivia()
	start := l.pos
	r, _ := l.readRune()
	switch {
	case r == -1:
		return token{kind: tokEOF, span: l.span(start)}

	case r == '/' && strings.HasPrefix(l.text[l.pos:], "//"):
		l.pos += 2
		end := strings.IndexByte(l.text[l.pos:], '\n')
		if end == -1 {
			end = len(l.text) - l.pos
		}
		doc := l.text[l.pos : l.pos+end]
		l.pos += end
		doc = strings.TrimPrefix(strings.TrimRight(doc, "\r"), " ")
		return token{kind: tokDoc, text: doc, span: l.span(start)}

	case r == '_' || unicode.IsLetter(r):
		for {
			r := l.peekRune()
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			l.readRune()
		}
		return token{kind: tokIdent, text: l.text[start:l.pos], span: l.span(start)}

	case r >= '0' && r <= '9':
		return l.lexNumber(start)

	case r == '"' || r == '`':
		return l.lexString(start, r)
	}

	for _, punct := range twoCharPuncts {
		if strings.HasPrefix(l.text[start:], punct) {
			l.pos = start + len(punct)
			return token{kind: tokPunct, text: punct, span: l.span(start)}
		}
	}
	if strings.ContainsRune("{}()[]|*+?@:,=<>!-.;#&", r) {
		return token{kind: tokPunct, text: l.text[start:l.pos], span: l.span(start)}
	}
	return token{
		kind:  tokError,
		text:  l.text[start:l.pos],
		value: fmt.Sprintf("unexpected character %q", r),
		span:  l.span(start),
	}
}

// peek returns the next token without consuming it.
func (l *lexer) peek() token {
	pos := l.pos
	tok := l.next()
	l.pos = pos
	return tok
}

func (l *lexer) lexNumber(start int) token {
	kind := tokInt
	isDigit := func(r rune) bool {
		return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') || r == 'x' || r == 'o' || r == 'b'
	}
	for isDigit(l.peekRune()) {
		l.readRune()
	}
	if l.peekRune() == '.' {
		kind = tokFloat
		l.readRune()
		for isDigit(l.peekRune()) {
			l.readRune()
		}
	}
	// A trailing 'e' was consumed as a hex digit above; only a sign needs
	// handling here.
	if strings.ContainsRune("eE", rune(l.text[l.pos-1])) && (l.peekRune() == '+' || l.peekRune() == '-') {
		kind = tokFloat
		l.readRune()
		for isDigit(l.peekRune()) {
			l.readRune()
		}
	}
	text := l.text[start:l.pos]
	var err error
	if kind == tokInt {
		_, err = strconv.ParseInt(text, 0, 64)
		if err != nil {
			// Might be something like 1e9, which is a valid float.
			if _, ferr := strconv.ParseFloat(text, 64); ferr == nil && !strings.HasPrefix(text, "0x") {
				kind, err = tokFloat, nil
			}
		}
	} else {
		_, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		return token{kind: tokError, text: text, value: fmt.Sprintf("invalid number %q", text), span: l.span(start)}
	}
	return token{kind: kind, text: text, span: l.span(start)}
}

func (l *lexer) lexString(start int, quote rune) token {
	for {
		r, _ := l.readRune()
		switch {
		case r == -1 || (r == '\n' && quote == '"'):
			return token{kind: tokError, text: l.text[start:l.pos], value: "unterminated string literal", span: l.span(start)}
		case r == '\\' && quote == '"':
			l.readRune()
		case r == quote:
			text := l.text[start:l.pos]
			value, err := strconv.Unquote(text)
			if err != nil {
				return token{kind: tokError, text: text, value: fmt.Sprintf("invalid string literal %s: %v", text, err), span: l.span(start)}
			}
			return token{kind: tokString, text: text, value: value, span: l.span(start)}
		}
	}
}

// scanGoText scans raw Go text up to, but not including, the first rune in
// stop that appears outside any (), [] or {} nesting. It skips over Go
// string, rune and raw string literals and comments. It returns the span of
// the scanned text, trimmed of surrounding whitespace.
//
// If the text runs to EOF, or a closing delimiter is unbalanced, ok is false
// and pos is left at the failure point.
func (l *lexer) scanGoText(stop string) (span source.Span, ok bool) {
	l.skipTrivia()
	start := l.pos
	var stack []rune
	for {
		if l.pos >= len(l.text) {
			return l.span(start), false
		}
		r := l.peekRune()
		if len(stack) == 0 && strings.ContainsRune(stop, r) {
			break
		}
		rest := l.text[l.pos:]
		switch {
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end == -1 {
				l.pos = len(l.text)
				continue
			}
			l.pos += end
			continue
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end == -1 {
				l.pos = len(l.text)
				continue
			}
			l.pos += end + 4
			continue
		}
		l.readRune()
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opening(r) {
				l.pos -= utf8.RuneLen(r)
				return l.span(start), false
			}
			stack = stack[:len(stack)-1]
		case '"', '\'':
			for {
				c, _ := l.readRune()
				if c == -1 || c == '\n' {
					return l.span(start), false
				}
				if c == '\\' {
					l.readRune()
					continue
				}
				if c == r {
					break
				}
			}
		case '`':
			end := strings.IndexByte(l.text[l.pos:], '`')
			if end == -1 {
				l.pos = len(l.text)
				return l.span(start), false
			}
			l.pos += end + 1
		}
	}
	end := l.pos
	for end > start {
		r, size := utf8.DecodeLastRuneInString(l.text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return l.file.Span(start, end), true
}

func opening(r rune) rune {
	switch r {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}
