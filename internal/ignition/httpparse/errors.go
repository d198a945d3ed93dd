package httpparse

import "errors"

// Parser errors, pre-allocated sentinels in the teacher's idiom
// (pkg/shockwave/http11/errors.go) so hot-path returns never allocate.
var (
	// ErrIncomplete indicates the buffer does not yet contain a full
	// request line + header block (CRLF CRLF not found).
	ErrIncomplete = errors.New("httpparse: incomplete request")

	// ErrRequestLine indicates the request line could not be tokenized.
	ErrRequestLine = errors.New("httpparse: malformed request line")

	// ErrURITooLong indicates the URI exceeds MaxURILen (2048 bytes).
	ErrURITooLong = errors.New("httpparse: uri too long")

	// ErrVersion indicates the protocol version is neither HTTP/1.0 nor
	// HTTP/1.1.
	ErrVersion = errors.New("httpparse: unsupported http version")

	// ErrHeadersTooLarge indicates the header block exceeded
	// MaxRequestSize before CRLF CRLF was found.
	ErrHeadersTooLarge = errors.New("httpparse: headers too large")
)
