package sqlstore

import "errors"

// Sentinel kinds for assessment log errors.
var (
	ErrNotFound          = errors.New("assessment not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
