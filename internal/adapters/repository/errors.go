package repository

import "errors"

// Sentinel kinds for cohort errors.
var (
	ErrNotFound     = errors.New("student not found")
	ErrInvalidLimit = errors.New("invalid cohort limit")
	ErrInvalidEntry = errors.New("invalid cohort entry")
)
