package connpool

import "errors"

// ErrExhausted is returned by Acquire when every connection record is
// already in use (spec.md §4.2: fixed capacity N).
var ErrExhausted = errors.New("connpool: exhausted")
