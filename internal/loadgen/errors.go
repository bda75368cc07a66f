package loadgen

import "errors"

// Sentinel errors returned by Run.
var (
	ErrNotSettled   = errors.New("cohort did not absorb submissions in time")
	ErrVerification = errors.New("verification failed")

	errStatus = errors.New("unexpected status")
)
