// Package errors provides error handling utilities for ctrake.
// It offers consistent error wrapping, per-document error accumulation for
// batch runs, and skip counters that make silent error paths visible.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Op represents an operation name for error context.
type Op string

// Error represents an application error with context.
type Error struct {
	Op   Op     // Operation that failed
	Kind Kind   // Category of error
	Err  error  // Underlying error
	Msg  string // Additional context message
}

// Kind represents the category of error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDatabase
	KindSearch
	KindIO
	KindValidation
	KindConfig
	KindNetwork
	KindParse
	KindRequired
	KindNotFound
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindSearch:
		return "search"
	case KindIO:
		return "io"
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindRequired:
		return "required field"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
		if e.Err != nil {
			b.WriteString(": ")
		}
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error with the given arguments.
// Arguments can be: Op, Kind, error, string (message).
func E(args ...interface{}) *Error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case error:
			e.Err = a
		case string:
			e.Msg = a
		}
	}
	return e
}

// Wrap wraps an error with an operation name for context.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: GetKind(err), Err: err}
}

// WrapMsg wraps an error with an operation name and message.
func WrapMsg(op Op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: GetKind(err), Msg: msg, Err: err}
}

// IsKind checks if an error, or any error it wraps, is of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// GetKind returns the first non-unknown kind in the error chain, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return KindUnknown
		}
		if e.Kind != KindUnknown {
			return e.Kind
		}
		err = e.Err
	}
	return KindUnknown
}

// Is and As re-export the standard library helpers so callers only need
// one errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// New returns a plain error.
func New(text string) error { return stderrors.New(text) }

// DocumentError ties a failure to the source document that caused it.
type DocumentError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (d *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", d.Path, d.Err)
}

// Unwrap returns the underlying error.
func (d *DocumentError) Unwrap() error {
	return d.Err
}

// Kind returns the kind of the underlying error.
func (d *DocumentError) Kind() Kind {
	return GetKind(d.Err)
}

// List accumulates per-document errors. Safe for concurrent use.
type List struct {
	mu   sync.Mutex
	errs []*DocumentError
}

// Add records a failure for path. Nil errors are ignored.
func (l *List) Add(path string, err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, &DocumentError{Path: path, Err: err})
}

// Len returns the number of recorded errors.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

// Errors returns the recorded errors sorted by document path.
func (l *List) Errors() []*DocumentError {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*DocumentError, len(l.errs))
	copy(out, l.errs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CountByKind groups recorded errors by kind.
func (l *List) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range l.Errors() {
		counts[e.Kind()]++
	}
	return counts
}

// SkipCounter tracks how many times operations have been skipped.
// Use this to provide visibility into silent error patterns.
type SkipCounter struct {
	Op         string
	Count      int
	LastErr    error
	LastDetail string
}

// NewSkipCounter creates a new skip counter for the given operation.
func NewSkipCounter(op string) *SkipCounter {
	return &SkipCounter{Op: op}
}

// Skip records a skipped operation due to an error.
func (s *SkipCounter) Skip(err error, detail string) {
	s.Count++
	s.LastErr = err
	s.LastDetail = detail
}

// Report logs a summary if any operations were skipped.
func (s *SkipCounter) Report() {
	if s.Count > 0 {
		log.Warn().
			Str("op", s.Op).
			Int("skipped", s.Count).
			AnErr("last_error", s.LastErr).
			Str("detail", s.LastDetail).
			Msg("items skipped")
	}
}

// IgnoreError explicitly ignores an error with a reason.
//
// Example:
//
//	errors.IgnoreError(file.Close(), "cleanup during error recovery")
func IgnoreError(err error, reason string) {
	if err != nil {
		log.Debug().Err(err).Str("reason", reason).Msg("ignoring error")
	}
}
