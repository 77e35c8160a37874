package frame

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedHeader        = errors.New("malformed header")
	ErrTruncatedFrame         = errors.New("truncated frame")
	ErrUnknownMeasurementType = errors.New("unknown measurement type")
	ErrInvalidHexDigit        = errors.New("invalid hex digit")
)

// Error describes where decoding stopped. Kind is one of the Err* sentinels.
type Error struct {
	Kind   error
	Offset int // hex character offset into the normalized frame
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

// Reason maps err to a short stable identifier, suitable for metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrTruncatedFrame):
		return "truncated_frame"
	case errors.Is(err, ErrUnknownMeasurementType):
		return "unknown_measurement_type"
	case errors.Is(err, ErrInvalidHexDigit):
		return "invalid_hex_digit"
	default:
		return "other"
	}
}
