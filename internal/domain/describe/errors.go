package describe

import "errors"

// ErrUnsupportedLocale is returned by ParseLocale for anything but en or ko.
var ErrUnsupportedLocale = errors.New("unsupported locale")
