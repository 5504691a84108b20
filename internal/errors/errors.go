// Package errors provides coded, user-facing errors for the kinetic CLI.
// Each code maps to a short message; call sites attach detail and a fix
// suggestion before the CLI formats the error for the terminal.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
	CategoryRuntime Category = "runtime"
	CategoryStore   Category = "store"
)

// CLIError is a structured error with a stable code and fix guidance.
type CLIError struct {
	// Code is a unique error identifier (e.g., "K101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a longer explanation.
func (e *CLIError) WithDetail(d string) *CLIError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *CLIError) WithSuggestion(s string) *CLIError {
	e.Suggestion = s
	return e
}

// Wrap attaches an underlying error.
func (e *CLIError) Wrap(err error) *CLIError {
	e.Wrapped = err
	return e
}

// Format renders the error as a multi-line terminal block.
func (e *CLIError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error[%s]: %s\n", e.Code, e.Message)
	if e.Detail != "" {
		fmt.Fprintf(&b, "  %s\n", e.Detail)
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  caused by: %s\n", e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  hint: %s\n", e.Suggestion)
	}
	return b.String()
}

type template struct {
	Category Category
	Message  string
}

// registry maps codes to their templates. Kept small on purpose: codes are
// part of the CLI's contract with users.
var registry = map[string]template{
	"K100": {CategoryConfig, "failed to parse kinetic.json"},
	"K101": {CategoryConfig, "no kinetic.json found"},
	"K102": {CategoryConfig, "failed to write kinetic.json"},
	"K110": {CategoryConfig, "invalid inspector listen address"},
	"K111": {CategoryConfig, "invalid history capacity"},
	"K120": {CategoryStore, "snapshot store failure"},
	"K130": {CategoryRuntime, "runtime startup failed"},
	"K901": {CategoryCLI, "unknown error"},
}

// New builds a CLIError for a registered code. Unregistered codes fall back
// to K901 so a typo never panics.
func New(code string) *CLIError {
	t, ok := registry[code]
	if !ok {
		t = registry["K901"]
	}
	return &CLIError{Code: code, Category: t.Category, Message: t.Message}
}

// Newf builds an ad-hoc error without a registered code.
func Newf(category Category, format string, args ...any) *CLIError {
	return &CLIError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// Codes returns the registered codes in order, for documentation tooling.
func Codes() []string {
	out := make([]string, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
