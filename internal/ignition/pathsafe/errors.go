package pathsafe

import "errors"

// ErrForbidden is returned for any rejection path in Sanitize — spec.md
// §4.6 specifies every failure mode maps to the same "forbidden" result.
var ErrForbidden = errors.New("pathsafe: forbidden")
