package bargo

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies failures into a small stable taxonomy. Callers that
// need to branch on the class of a failure should match the sentinel
// errors below with errors.Is rather than inspecting Kind directly.
type Kind int

const (
	// KindInput marks failures to obtain bytes from a decode input:
	// missing files, undecodable base64, malformed data URLs, corrupt
	// image headers.
	KindInput Kind = iota + 1

	// KindOptions marks invalid or contradictory option values.
	KindOptions

	// KindRecognition marks engine failures while scanning an image.
	// An image that simply contains no barcode is not a failure.
	KindRecognition

	// KindGeneration marks engine failures while rendering a barcode,
	// such as content that does not fit the requested symbology.
	KindGeneration

	// KindIO marks filesystem failures while persisting encoder output.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input error"
	case KindOptions:
		return "options error"
	case KindRecognition:
		return "recognition error"
	case KindGeneration:
		return "generation error"
	case KindIO:
		return "io error"
	default:
		return "unknown error"
	}
}

// Sentinel errors, one per Kind. Every error returned by this package
// matches exactly one of them under errors.Is.
var (
	ErrInput       = errors.New("invalid input")
	ErrOptions     = errors.New("invalid options")
	ErrRecognition = errors.New("recognition failed")
	ErrGeneration  = errors.New("generation failed")
	ErrIO          = errors.New("io failure")
)

// Error is the concrete error type returned by Decode, Encode and their
// variants. Op names the failing operation, Field names the offending
// option for KindOptions failures, and Err holds the underlying cause.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %q)", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel corresponding to the error's Kind, so
// errors.Is(err, ErrOptions) holds for any options failure regardless
// of the wrapped cause.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInput:
		return e.Kind == KindInput
	case ErrOptions:
		return e.Kind == KindOptions
	case ErrRecognition:
		return e.Kind == KindRecognition
	case ErrGeneration:
		return e.Kind == KindGeneration
	case ErrIO:
		return e.Kind == KindIO
	default:
		return false
	}
}

// ErrorKind extracts the taxonomy Kind from err, or 0 when err was not
// produced by this package.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func newOptionsError(op, field string, err error) *Error {
	return &Error{Kind: KindOptions, Op: op, Field: field, Err: err}
}
