package cache

import (
	"fmt"
	"net/http"
	"time"
)

// buildHeaders assembles the content-specific header lines for a cache
// entry (spec.md §4.4 writer-side step 4): content-type, length,
// Cache-Control, ETag, Last-Modified. It deliberately omits the status
// line, Server, Connection/Keep-Alive, and the security header set —
// those depend on the request being served (in particular, keep-alive
// eligibility can differ between the request that filled the cache and
// a later request hitting the same entry), so the response builder adds
// them fresh on every use of a cached entry rather than baking one
// request's decision into the stored bytes.
func buildHeaders(contentType string, size int64, mtime time.Time) []byte {
	etag := ETag(size, mtime)

	var b []byte
	b = appendf(b, "Content-Type: %s\r\n", contentType)
	b = appendf(b, "Content-Length: %d\r\n", size)
	b = appendf(b, "ETag: %s\r\n", etag)
	b = appendf(b, "Last-Modified: %s\r\n", mtime.UTC().Format(http.TimeFormat))
	b = appendf(b, "Cache-Control: public, max-age=3600\r\n")
	return b
}

func appendf(b []byte, format string, args ...any) []byte {
	return fmt.Appendf(b, format, args...)
}

// ETag computes spec.md §6's canonical `"size-mtime"` lowercase-hex
// ETag. Exposed so the response builder can reproduce it for the
// uncached path and for conditional-GET comparisons.
func ETag(size int64, mtime time.Time) string {
	return fmt.Sprintf(`"%x-%x"`, size, mtime.Unix())
}
