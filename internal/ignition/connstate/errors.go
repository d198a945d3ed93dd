package connstate

import "errors"

// errRequestTooLarge mirrors spec.md §4.8's "headers not yet complete
// and recv_offset >= MAX_REQUEST_SIZE" failure.
var errRequestTooLarge = errors.New("connstate: request headers exceed MAX_REQUEST_SIZE")
