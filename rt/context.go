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
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/btree"
)

// DefaultMaxDepth is the rule nesting limit used when no [WithMaxDepth]
// option is given.
const DefaultMaxDepth = 1000

// Mark is a saved input position. Restoring a mark with [Context.Reset]
// backtracks the parse.
type Mark int

// Location is a one-based line and column. Columns count runes.
type Location struct {
	Line, Column int
}

// Option configures a [Context].
type Option func(*Context)

// WithMaxDepth sets the maximum rule nesting depth. A parse that exceeds it
// fails with a fatal error instead of overflowing the stack.
func WithMaxDepth(depth int) Option {
	return func(c *Context) {
		c.maxDepth = depth
	}
}

// WithSkipper replaces the default whitespace and comment skipping. A nil
// skipper disables skipping. The skipper never runs recursively: matchers
// called from within it do not skip.
func WithSkipper(skip func(*Context) error) Option {
	return func(c *Context) {
		c.skipper = skip
	}
}

// SkipWith installs a rule as the skipper. Generated parsers use it for a
// grammar's ws rule.
func SkipWith[T any](r Rule[T]) Option {
	return WithSkipper(func(c *Context) error {
		_, err := r(c)
		return err
	})
}

// WithKeywords reserves words that the identifier matcher must not accept.
func WithKeywords(words ...string) Option {
	return func(c *Context) {
		if c.keywords == nil {
			c.keywords = make(map[string]struct{}, len(words))
		}
		for _, w := range words {
			c.keywords[w] = struct{}{}
		}
	}
}

// Context is the state of one parse.
type Context struct {
	src string
	pos int

	skipper  func(*Context) error
	skipping bool
	// skipFrom and skipTo remember the last skip so that trying several
	// alternatives at one position skips only once.
	skipFrom, skipTo int

	keywords map[string]struct{}

	maxDepth    int
	depth, peak int
	rules       []string

	// quiet suppresses failure recording while positive.
	quiet     int
	farthest  int
	failRule  string
	expected  btree.Set[string]
	message   string
	recovered []*Error

	lines []int
}

// NewContext returns a context for parsing src.
func NewContext(src string, opts ...Option) *Context {
	c := &Context{
		src:      src,
		skipper:  SkipSpaceAndComments,
		skipFrom: -1,
		maxDepth: DefaultMaxDepth,
		farthest: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the complete input.
func (c *Context) Source() string {
	return c.src
}

// Pos returns the current byte offset.
func (c *Context) Pos() int {
	return c.pos
}

// Rest returns the unconsumed input.
func (c *Context) Rest() string {
	return c.src[c.pos:]
}

// AtEOF reports whether all input has been consumed.
func (c *Context) AtEOF() bool {
	return c.pos >= len(c.src)
}

// Mark saves the current position.
func (c *Context) Mark() Mark {
	return Mark(c.pos)
}

// Reset restores a position saved by [Context.Mark].
func (c *Context) Reset(m Mark) {
	c.pos = int(m)
}

// Advance consumes n bytes.
func (c *Context) Advance(n int) {
	c.pos = min(c.pos+n, len(c.src))
}

// Start skips whitespace and returns the position where the next token
// begins. Together with [Context.SpanFrom] it measures the span of a match.
func (c *Context) Start() Mark {
	c.Skip()
	return c.Mark()
}

// SpanFrom returns the span from start to the current position.
func (c *Context) SpanFrom(start Mark) Span {
	return Span{Start: int(start), End: c.pos}
}

// Text returns the input covered by a span.
func (c *Context) Text(s Span) string {
	return c.src[s.Start:s.End]
}

// Skip runs the skipper at the current position, unless a skip is already in
// progress.
func (c *Context) Skip() {
	if c.skipper == nil || c.skipping {
		return
	}
	if c.pos == c.skipFrom {
		c.pos = c.skipTo
		return
	}
	from := c.pos
	c.skipping = true
	c.quiet++
	err := c.skipper(c)
	c.quiet--
	c.skipping = false
	if err != nil {
		c.pos = from
	}
	c.skipFrom, c.skipTo = from, c.pos
}

// SkipSpaceAndComments is the default skipper. It consumes Unicode
// whitespace, // line comments and /* */ block comments.
func SkipSpaceAndComments(c *Context) error {
	for !c.AtEOF() {
		rest := c.Rest()
		switch {
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			c.Advance(end)
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return c.Failf("unterminated block comment")
			}
			c.Advance(end + 4)
		default:
			r, size := utf8.DecodeRuneInString(rest)
			if !unicode.IsSpace(r) {
				return nil
			}
			c.Advance(size)
		}
	}
	return nil
}

// Enter records entry into a rule. It fails with a fatal error if the
// nesting limit is exceeded; otherwise the caller must pair it with
// [Context.Exit].
func (c *Context) Enter(rule string) error {
	if c.depth >= c.maxDepth {
		return c.Fatalf("maximum rule depth %d exceeded in rule '%s'", c.maxDepth, rule)
	}
	c.depth++
	c.peak = max(c.peak, c.depth)
	c.rules = append(c.rules, rule)
	return nil
}

// Exit records return from the rule most recently entered.
func (c *Context) Exit() {
	c.depth--
	c.rules = c.rules[:len(c.rules)-1]
}

// Depth returns the current rule nesting depth.
func (c *Context) Depth() int {
	return c.depth
}

// PeakDepth returns the deepest rule nesting reached so far.
func (c *Context) PeakDepth() int {
	return c.peak
}

// Recovered returns the errors skipped over by recover patterns, in the
// order they occurred.
func (c *Context) Recovered() []*Error {
	return c.recovered
}

// Location converts a byte offset into a line and column.
func (c *Context) Location(offset int) Location {
	offset = min(max(offset, 0), len(c.src))
	if c.lines == nil {
		c.lines = append(c.lines, 0)
		for i := range len(c.src) {
			if c.src[i] == '\n' {
				c.lines = append(c.lines, i+1)
			}
		}
	}
	line := sort.Search(len(c.lines), func(i int) bool { return c.lines[i] > offset }) - 1
	start := c.lines[line]
	return Location{
		Line:   line + 1,
		Column: utf8.RuneCountInString(c.src[start:offset]) + 1,
	}
}

func (c *Context) currentRule() string {
	if len(c.rules) == 0 {
		return ""
	}
	return c.rules[len(c.rules)-1]
}

func (c *Context) isKeyword(word string) bool {
	_, ok := c.keywords[word]
	return ok
}
