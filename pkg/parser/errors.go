package parser

import (
	"fmt"

	"github.com/leapstack-labs/pgsyntax/pkg/core"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Diagnostic is a syntax problem attached to a byte range of the source.
type Diagnostic struct {
	Span     token.Span    `json:"span" yaml:"span"`
	Message  string        `json:"message" yaml:"message"`
	Severity core.Severity `json:"severity" yaml:"severity"`
}

func newDiagnostic(span token.Span, msg string) Diagnostic {
	return Diagnostic{Span: span, Message: msg, Severity: core.SeverityError}
}

func (d Diagnostic) shift(delta int) Diagnostic {
	d.Span = d.Span.Shift(delta)
	return d
}

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Err returns the first diagnostic of the tree as a *ParseError, or nil when
// the source parsed cleanly.
func (t *Tree) Err() error {
	if len(t.Diagnostics) == 0 {
		return nil
	}
	d := t.Diagnostics[0]
	return &ParseError{Pos: token.NewLineIndex(t.Source).Position(d.Span.Start), Message: d.Message}
}

// Common error messages
const (
	errSyntaxNear     = "syntax error at or near %q"
	errUnexpectedChar = "unexpected character %q"
	errMissing        = "missing %s"
)
