package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a user-visible failure
type ErrorKind string

const (
	KindSymbolNotFound    ErrorKind = "SymbolNotFound"
	KindInsufficientData  ErrorKind = "InsufficientData"
	KindInvalidParameter  ErrorKind = "InvalidParameter"
	KindInvalidMethod     ErrorKind = "InvalidMethod"
	KindNoOverlap         ErrorKind = "NoOverlap"
	KindNumericDegenerate ErrorKind = "NumericDegenerate"
)

// Error is a structured analytics failure carrying the offending
// symbol or parameter
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Symbol   string    `json:"symbol,omitempty"`
	Param    string    `json:"parameter,omitempty"`
	Required int       `json:"required,omitempty"`
	Message  string    `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Symbol != "" {
		fmt.Fprintf(&b, " [symbol=%s]", e.Symbol)
	}
	if e.Param != "" {
		fmt.Fprintf(&b, " [param=%s]", e.Param)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrSymbolNotFound    = &Error{Kind: KindSymbolNotFound}
	ErrInsufficientData  = &Error{Kind: KindInsufficientData}
	ErrInvalidParameter  = &Error{Kind: KindInvalidParameter}
	ErrInvalidMethod     = &Error{Kind: KindInvalidMethod}
	ErrNoOverlap         = &Error{Kind: KindNoOverlap}
	ErrNumericDegenerate = &Error{Kind: KindNumericDegenerate}
)

// SymbolNotFound reports an unknown symbol
func SymbolNotFound(symbol string) *Error {
	return &Error{
		Kind:    KindSymbolNotFound,
		Symbol:  symbol,
		Message: fmt.Sprintf("symbol %s does not exist", symbol),
	}
}

// InsufficientData reports a series shorter than the required minimum
func InsufficientData(symbol string, required, got int) *Error {
	return &Error{
		Kind:     KindInsufficientData,
		Symbol:   symbol,
		Required: required,
		Message:  fmt.Sprintf("need at least %d observations, got %d", required, got),
	}
}

// InvalidParameter reports an out-of-range or unrecognized parameter
func InvalidParameter(param, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidParameter,
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidMethod reports an unknown optimization method
func InvalidMethod(method string) *Error {
	return &Error{
		Kind:    KindInvalidMethod,
		Param:   "method",
		Message: fmt.Sprintf("unsupported optimization method %q", method),
	}
}

// NoOverlap reports an empty common date range
func NoOverlap(symbols []string) *Error {
	return &Error{
		Kind:    KindNoOverlap,
		Message: fmt.Sprintf("no common dates across %s", strings.Join(symbols, ", ")),
	}
}

// AsError extracts a *Error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
