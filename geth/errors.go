package geth

import (
	"errors"
	"fmt"
	"strings"
)

// Conversion failure kinds. Every error returned by a converter in this
// package wraps exactly one of them and can be tested with errors.Is.
var (
	ErrOverflow              = errors.New("value exceeds target width")
	ErrInvalidLength         = errors.New("invalid byte length")
	ErrAmbiguousReceiptState = errors.New("receipt must carry exactly one of status and root")
	ErrInvalidFilterRange    = errors.New("invalid filter block range")
	ErrUnsupportedVariant    = errors.New("variant not representable on target side")
	ErrMissingField          = errors.New("required field missing")
	ErrUnimplemented         = errors.New("conversion not implemented")
	ErrMalformedInput        = errors.New("malformed input")
)

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrOverflow, "overflow"},
	{ErrInvalidLength, "invalid_length"},
	{ErrAmbiguousReceiptState, "ambiguous_receipt_state"},
	{ErrInvalidFilterRange, "invalid_filter_range"},
	{ErrUnsupportedVariant, "unsupported_variant"},
	{ErrMissingField, "missing_field"},
	{ErrUnimplemented, "unimplemented"},
	{ErrMalformedInput, "malformed_input"},
}

// ConversionError records which field of an entity failed to convert.
// Field is a path such as "logs[2].topics".
type ConversionError struct {
	Field string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Field, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// FieldPath returns the path of the field that failed.
func (e *ConversionError) FieldPath() string { return e.Field }

// Reason returns the short name of the failure kind.
func (e *ConversionError) Reason() string { return KindOf(e) }

// KindOf returns the short name of the failure kind wrapped by err, or
// "unknown".
func KindOf(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

// fieldErr attaches a field name to err, prefixing the path when err is
// already a ConversionError from a nested entity.
func fieldErr(field string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		sep := "."
		if strings.HasPrefix(ce.Field, "[") {
			sep = ""
		}
		return &ConversionError{Field: field + sep + ce.Field, Err: ce.Err}
	}
	return &ConversionError{Field: field, Err: err}
}

func indexField(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

func missing(field string) error {
	return &ConversionError{Field: field, Err: ErrMissingField}
}

func unsupported(field, format string, args ...any) error {
	return &ConversionError{Field: field, Err: fmt.Errorf("%w: "+format, append([]any{ErrUnsupportedVariant}, args...)...)}
}
