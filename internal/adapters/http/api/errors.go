package api

import (
	"errors"
	"strings"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInternal     = errors.New("internal error")
)

// Request body failures reported by decode.
var (
	ErrMalformedBody = errors.New("request body must be valid JSON")
	ErrTrailingData  = errors.New("request body must contain a single JSON object")
	ErrBodyTooLarge  = errors.New("request body is too large")
)

// KindError ties an error to the handler operation that produced it and to
// one of the sentinel kinds above.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *KindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// WrapKind wraps err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// NewKind returns a bare kind error for op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// Wrap attaches op to err without assigning a kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Err: err}
}

// publicMessage strips the op and kind prefixes so clients see the cause only.
func publicMessage(err error) string {
	var ke *KindError
	for errors.As(err, &ke) {
		switch {
		case ke.Err != nil:
			err = ke.Err
		case ke.Kind != nil:
			return ke.Kind.Error()
		default:
			return ""
		}
	}
	return err.Error()
}
