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

// Package reporter contains the types used for reporting errors from the
// grammar compiler. All stages share one [Handler] per compilation unit so
// that every independent problem is reported, not just the first.
package reporter

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bufbuild/grammarc/source"
)

// ErrorReporter is responsible for reporting the given error. If the reporter
// returns a non-nil error, compilation will abort with that error. If the
// reporter returns nil, compilation will continue, allowing each stage to
// report as many errors as it can find.
type ErrorReporter func(err ErrorWithPos) error

// WarningReporter is responsible for reporting the given warning. This is used
// for things that do not cause compilation to fail but are likely mistakes,
// such as unused rules or shadowed alternatives.
type WarningReporter func(ErrorWithPos)

// Reporter is a type that handles reporting both errors and warnings.
type Reporter interface {
	// Error is called when the given error is encountered. If this returns
	// a non-nil error, compilation stops with that error.
	Error(ErrorWithPos) error
	// Warning is called when the given warning is encountered.
	Warning(ErrorWithPos)
}

// NewReporter creates a new reporter that invokes the given functions on
// error or warning. A nil errs reports every error and keeps going.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

// FailFast returns a reporter that aborts on the first error.
func FailFast(warnings WarningReporter) Reporter {
	return NewReporter(func(err ErrorWithPos) error { return err }, warnings)
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithPos) error {
	if r.errs == nil {
		return nil
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithPos) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Collector is a Reporter that records everything it is given, in order.
//
// It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	errs     []ErrorWithPos
	warnings []ErrorWithPos
}

// Error implements [Reporter].
func (c *Collector) Error(err ErrorWithPos) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	return nil
}

// Warning implements [Reporter].
func (c *Collector) Warning(err ErrorWithPos) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, err)
}

// Errors returns a copy of the errors recorded so far.
func (c *Collector) Errors() []ErrorWithPos {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.errs)
}

// Warnings returns a copy of the warnings recorded so far.
func (c *Collector) Warnings() []ErrorWithPos {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.warnings)
}

// Handler is used by compilation stages to report errors and warnings. It
// remembers whether any error was reported so that later stages can be
// skipped.
type Handler struct {
	parent   *Handler
	reporter Reporter
	strict   bool

	mu           sync.Mutex
	errsReported int
	err          error
}

// NewHandler creates a new Handler that reports errors and warnings using the
// given reporter. A nil reporter reports everything and never aborts.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// NewStrictHandler is like [NewHandler], but the returned handler reports
// warnings as errors.
func NewStrictHandler(rep Reporter) *Handler {
	h := NewHandler(rep)
	h.strict = true
	return h
}

// SubHandler returns a handler that shares this handler's reporter, but keeps
// its own count of reported errors. Errors reported to the sub-handler are
// also counted by its parent.
func (h *Handler) SubHandler() *Handler {
	return &Handler{parent: h, reporter: h.reporter, strict: h.strict}
}

// HandleErrorf handles an error with the given span, creating the error using
// the given message format and arguments.
func (h *Handler) HandleErrorf(span source.Spanner, format string, args ...any) error {
	return h.HandleError(Errorf(span, format, args...))
}

// HandleError handles the given error. If it is an ErrorWithPos, it is
// reported and the reporter's return value is remembered. Otherwise, it is
// remembered as a fatal error.
func (h *Handler) HandleError(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	var ewp ErrorWithPos
	if errors.As(err, &ewp) {
		h.errsReported++
		if h.parent != nil {
			h.parent.markReported()
		}
		err = h.reporter.Error(ewp)
	}
	h.err = err
	if err != nil && h.parent != nil {
		h.parent.setErr(err)
	}
	return err
}

// HandleWarning handles a warning with the given span. A strict handler
// handles it as an error instead.
func (h *Handler) HandleWarning(span source.Spanner, err error) {
	if h.strict {
		_ = h.HandleError(Error(span, err))
		return
	}
	// no need for lock; warnings don't interact with mutable fields
	h.reporter.Warning(Error(span, err))
}

// HandleWarningf handles a warning with the given span, creating the warning
// using the given message format and arguments.
func (h *Handler) HandleWarningf(span source.Spanner, format string, args ...any) {
	h.HandleWarning(span, fmt.Errorf(format, args...))
}

// Error returns the handler result. If any errors have been reported then
// this returns a non-nil error. If the reporter never returned a non-nil
// error then [ErrInvalidSource] is returned.
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported > 0 && h.err == nil {
		return ErrInvalidSource
	}
	return h.err
}

// ErrorCount returns the number of errors reported through this handler.
func (h *Handler) ErrorCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errsReported
}

// ReporterError returns the error returned by the reporter, if any. Unlike
// [Handler.Error], it returns nil when errors were reported but the reporter
// chose to continue.
func (h *Handler) ReporterError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handler) markReported() {
	h.mu.Lock()
	h.errsReported++
	parent := h.parent
	h.mu.Unlock()
	if parent != nil {
		parent.markReported()
	}
}

func (h *Handler) setErr(err error) {
	h.mu.Lock()
	if h.err == nil {
		h.err = err
	}
	parent := h.parent
	h.mu.Unlock()
	if parent != nil {
		parent.setErr(err)
	}
}
