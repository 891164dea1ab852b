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

import "errors"

// Cut records whether the alternative it belongs to has passed a cut. Each
// retry scope gives every attempt a fresh Cut.
type Cut struct {
	committed bool
}

// Commit marks the current attempt as selected. A later failure of the
// attempt is not retried with another alternative.
func (c *Cut) Commit() {
	c.committed = true
}

// Committed reports whether [Cut.Commit] was called.
func (c *Cut) Committed() bool {
	return c.committed
}

// Arm is one attempt within a retry scope: an alternative of a [Choice], an
// iteration of [Many], the body of [Optional] and so on.
type Arm[T any] func(c *Context, cut *Cut) (T, error)

// Tail continues a left-recursive rule from the value parsed so far.
type Tail[T any] func(c *Context, cut *Cut, lhs T) (T, error)

// Choice tries each arm in order from the same position and returns the
// result of the first that succeeds. An arm that fails after committing
// ends the choice with its error.
func Choice[T any](c *Context, arms ...Arm[T]) (T, error) {
	var zero T
	var lastErr error
	start := c.Mark()
	for _, arm := range arms {
		var cut Cut
		v, err := arm(c, &cut)
		if err == nil {
			return v, nil
		}
		if cut.committed || IsFatal(err) {
			return zero, err
		}
		c.Reset(start)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = c.Fail("alternative")
	}
	return zero, lastErr
}

// Many matches arm repeatedly until it fails, and returns the results in
// order. An iteration that consumes no input ends the loop after its result
// is kept. An iteration that fails after committing fails the loop.
func Many[T any](c *Context, arm Arm[T]) ([]T, error) {
	return repeat(c, arm, 0)
}

// Many1 is like [Many] but fails if arm does not match at least once.
func Many1[T any](c *Context, arm Arm[T]) ([]T, error) {
	return repeat(c, arm, 1)
}

func repeat[T any](c *Context, arm Arm[T], atLeast int) ([]T, error) {
	var results []T
	for {
		start := c.Mark()
		var cut Cut
		v, err := arm(c, &cut)
		if err != nil {
			if cut.committed || IsFatal(err) || len(results) < atLeast {
				return nil, err
			}
			c.Reset(start)
			return results, nil
		}
		results = append(results, v)
		if c.Mark() == start {
			return results, nil
		}
	}
}

// Optional matches arm at most once. It returns nil if arm fails without
// committing.
func Optional[T any](c *Context, arm Arm[T]) (*T, error) {
	start := c.Mark()
	var cut Cut
	v, err := arm(c, &cut)
	if err != nil {
		if cut.committed || IsFatal(err) {
			return nil, err
		}
		c.Reset(start)
		return nil, nil
	}
	return &v, nil
}

// Peek matches arm without consuming input.
func Peek[T any](c *Context, arm Arm[T]) (T, error) {
	start := c.Mark()
	v, err := arm(c, new(Cut))
	c.Reset(start)
	return v, err
}

// Not succeeds, without consuming input, exactly when arm fails. The
// failures of arm itself are not reported. what describes the rejected
// input in the error when arm matches.
func Not[T any](c *Context, what string, arm Arm[T]) (Unit, error) {
	start := c.Mark()
	c.quiet++
	_, err := arm(c, new(Cut))
	c.quiet--
	c.Reset(start)
	switch {
	case err == nil:
		return Unit{}, c.Fail("not " + what)
	case IsFatal(err):
		return Unit{}, err
	default:
		return Unit{}, nil
	}
}

// Recover matches body. If body fails, input is skipped up to the first
// position where sync matches; sync itself is not consumed. The failure is
// then recorded in [Context.Recovered] and the result is nil. If sync
// matches nowhere before the end of input, Recover fails with body's error
// and records nothing.
func Recover[T any](c *Context, body Arm[T], sync Arm[Unit]) (*T, error) {
	start := c.Mark()
	v, err := body(c, new(Cut))
	if err == nil {
		return &v, nil
	}
	if IsFatal(err) {
		return nil, err
	}
	c.Reset(start)
	for {
		at := c.Mark()
		c.quiet++
		_, syncErr := sync(c, new(Cut))
		c.quiet--
		c.Reset(at)
		if syncErr == nil {
			break
		}
		if IsFatal(syncErr) {
			return nil, syncErr
		}
		if c.AtEOF() {
			c.Reset(start)
			return nil, err
		}
		c.skipToken()
	}
	var perr *Error
	if errors.As(err, &perr) {
		c.recovered = append(c.recovered, perr)
	}
	return nil, nil
}

// skipToken consumes whitespace and then one token: an identifier or number
// as a whole, or else a single character.
func (c *Context) skipToken() {
	c.Skip()
	if n := identLen(c.Rest()); n > 0 {
		c.Advance(n)
		return
	}
	if n := runLen(c.Rest(), isDigit); n > 0 {
		c.Advance(n)
		return
	}
	_, size := decodeRune(c.Rest())
	c.Advance(size)
}

// LeftRec runs a left-recursive rule as a loop. base parses the first
// value. Then, as long as one of the tails matches, the tail's result
// replaces the value so far. The loop ends when no tail matches. A tail
// that succeeds without consuming input is a fatal error. A tail that fails
// after committing fails the rule.
func LeftRec[T any](c *Context, base Rule[T], tails ...Tail[T]) (T, error) {
	var zero T
	lhs, err := base(c)
	if err != nil {
		return zero, err
	}
	for {
		start := c.Mark()
		matched := false
		for _, tail := range tails {
			var cut Cut
			v, err := tail(c, &cut, lhs)
			if err == nil {
				if c.Mark() == start {
					return zero, c.Fatalf("left-recursive rule matched empty string (infinite loop detected)")
				}
				lhs, matched = v, true
				break
			}
			if cut.committed || IsFatal(err) {
				return zero, err
			}
			c.Reset(start)
		}
		if !matched {
			return lhs, nil
		}
	}
}
