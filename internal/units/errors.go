package units

import "errors"

// ErrNegativeTime indicates a position before the origin.
var ErrNegativeTime = errors.New("time must not be negative")
