package percentile

import "errors"

// ErrNonIncreasingQuartiles reports quartiles that are not strictly increasing.
var ErrNonIncreasingQuartiles = errors.New("quartiles must satisfy q25 < q50 < q75")
