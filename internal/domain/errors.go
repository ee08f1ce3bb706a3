package domain

import "errors"

// ErrInvalidOrder rejects a submission with non-positive quantity or a
// negative price before anything is mutated.
var ErrInvalidOrder = errors.New("invalid order")
