// Package compress wraps klauspost/compress/gzip for spec.md §4.9 item
// 8's in-memory gzip fast path: compressible responses that fit half
// the send buffer are compressed whole and sent as one buffer rather
// than streamed, so a pooled BestSpeed writer is enough — there is no
// need for the flate-level tuning klauspost also exposes.
package compress

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/gzip"
)

var writerPool = sync.Pool{
	New: func() any {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// Gzip compresses body in memory at BestSpeed and returns the compressed
// bytes. Errors are only possible if the pooled writer's underlying
// buffer write fails, which bytes.Buffer never does.
func Gzip(body []byte) []byte {
	var buf bytes.Buffer

	w := writerPool.Get().(*gzip.Writer)
	w.Reset(&buf)
	defer writerPool.Put(w)

	_, _ = w.Write(body)
	_ = w.Close()

	return buf.Bytes()
}

// Compressible reports whether contentType is one of spec.md §4.9 item
// 8's compressible MIME prefixes.
func Compressible(contentType string) bool {
	for _, prefix := range compressiblePrefixes {
		if hasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

var compressiblePrefixes = []string{
	"text/",
	"application/json",
	"application/xml",
	"application/javascript",
	"application/xhtml+xml",
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
