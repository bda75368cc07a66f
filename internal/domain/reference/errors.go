package reference

import "errors"

// ErrInvalidReference wraps every calibration validation failure.
var ErrInvalidReference = errors.New("invalid reference statistics")
