package scoring

import "errors"

// ErrInvalidInput is matched by every *InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// Reasons carried by InvalidInputError, also used as metric labels.
const (
	ReasonBothTests = "both_tests"
	ReasonNoTest    = "no_test"
	ReasonWeights   = "weights"
)

// InvalidInputError reports a combination of inputs the estimator refuses.
// Retrying with the same input always fails the same way.
type InvalidInputError struct {
	Reason  string
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrInvalidInput) hold.
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(reason, msg string) error {
	return &InvalidInputError{Reason: reason, Message: msg}
}

// Reason extracts the InvalidInputError reason, or "" for any other error.
func Reason(err error) string {
	var ie *InvalidInputError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return ""
}
