package tmpl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values). Refine them with [Error.At],
// [Error.Format], [Error.With] and [Error.Wrap]; match them with errors.Is.
var (
	ErrUnterminatedSection         = NewError(CodeUnterminatedSection, "unterminated section")
	ErrUnterminatedExpression      = NewError(CodeUnterminatedExpression, "unterminated expression")
	ErrUnterminatedStringLiteral   = NewError(CodeUnterminatedStringLiteral, "unterminated string literal")
	ErrUnterminatedComment         = NewError(CodeUnterminatedComment, "unterminated comment")
	ErrUnterminatedCdata           = NewError(CodeUnterminatedCdata, "unterminated unparsed character data")
	ErrNoSectionHelperFound        = NewError(CodeNoSectionHelperFound, "no section helper found")
	ErrSectionEndDoesNotMatch      = NewError(CodeSectionEndDoesNotMatchStart, "section end tag does not match the start tag")
	ErrSectionStartNotFound        = NewError(CodeSectionStartNotFound, "section start tag not found")
	ErrSectionBlockEndDoesNotMatch = NewError(CodeSectionBlockEndDoesNotMatchStart, "section block end tag does not match the start tag")
	ErrMandatoryParamsMissing      = NewError(CodeMandatorySectionParamsMissing, "mandatory section parameters missing")
	ErrInvalidParamDeclaration     = NewError(CodeInvalidParamDeclaration, "invalid parameter declaration")
	ErrInvalidExpression           = NewError(CodeInvalidExpression, "invalid expression")
	ErrInvalidVirtualMethod        = NewError(CodeInvalidVirtualMethod, "invalid virtual method")
	ErrInvalidBracketExpression    = NewError(CodeInvalidBracketExpression, "invalid bracket notation expression")
	ErrInvalidNamespace            = NewError(CodeInvalidNamespace, "invalid namespace")
	ErrInvalidSectionParams        = NewError(CodeInvalidSectionParams, "invalid section parameters")
	ErrDuplicateParameter          = NewError(CodeDuplicateParameter, "duplicate parameter")
	ErrEmptyExpression             = NewError(CodeEmptyExpression, "empty expression")

	ErrNamespaceResolverNotFound = NewError(CodeNamespaceResolverNotFound, "no namespace resolver found")
	ErrPropertyNotFound          = NewError(CodePropertyNotFound, "property not found")
	ErrIteration                 = NewError(CodeIterationError, "iteration failed")
	ErrIncomparableValues        = NewError(CodeIncomparableValues, "values are not comparable")
	ErrTemplateNotFound          = NewError(CodeTemplateNotFound, "template not found")
	ErrRenderTimeout             = NewError(CodeRenderTimeout, "rendering timed out")
	ErrResolverFailure           = NewError(CodeResolverFailure, "value resolver failed")
)

// Error is a structured parse or render error. It carries a [Code], the
// [Origin] at which it was raised, a message, an optional wrapped cause and
// attributes for structured logging.
//
// Error values are immutable; every refining method returns a copy.
type Error struct {
	code   Code
	origin Origin
	msg    string
	detail string
	err    error
	attrs  []slog.Attr
}

// NewError creates a new Error with a code and base message.
func NewError(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// WrapError converts err into an *Error, preserving an existing *Error
// found anywhere in its chain.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Code returns the error code.
func (e *Error) Code() Code { return e.code }

// Origin returns the position at which the error was raised.
func (e *Error) Origin() Origin { return e.origin }

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<origin>: <msg>: <detail>: <err>"
	//   2. any subset of the above, in that order
	part := make([]string, 0, 4)

	if e.origin.TemplateID != "" || e.origin.IsKnown() {
		part = append(part, e.origin.String())
	}

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.detail != "" {
		part = append(part, e.detail)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same non-zero code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.code != CodeUnknown && t.code == e.code
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+5)

	if e.code != CodeUnknown {
		attrs = append(attrs, slog.String("code", e.code.String()))
	}

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.origin.TemplateID != "" || e.origin.IsKnown() {
		attrs = append(attrs, slog.Any("origin", e.origin))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached to the error.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// At returns a copy of the error positioned at origin.
func (e *Error) At(origin Origin) *Error {
	c := *e
	c.origin = origin

	return &c
}

// Format returns a copy of the error with a detail message.
func (e *Error) Format(format string, args ...any) *Error {
	c := *e
	c.detail = fmt.Sprintf(format, args...)

	return &c
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	c := *e
	c.attrs = newAttrs

	return &c
}
