// Package response implements spec.md §4.9: method policy, URI
// dispatch, caching, compression, and Range handling, producing a fully
// built header block plus either an inline body or a file handle ready
// for the reactor's post_send/post_transmit_file.
package response

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yourusername/ignition/internal/ignition/cache"
	"github.com/yourusername/ignition/internal/ignition/compress"
	"github.com/yourusername/ignition/internal/ignition/dirlist"
	"github.com/yourusername/ignition/internal/ignition/httpparse"
	"github.com/yourusername/ignition/internal/ignition/pathsafe"
	"github.com/yourusername/ignition/internal/ignition/stats"
)

// Out is what the connection state machine hands to the reactor: a
// complete header block, plus either an inline Body or a File to
// transmit via post_transmit_file.
type Out struct {
	Status    int
	Headers   []byte
	Body      []byte
	File      *os.File
	FileOffset int64
	FileLength int64
	KeepAlive bool
}

// sendBufferHalf bounds how large a body may be for the in-memory gzip
// fast path (spec.md §4.9 item 8: "file fits half of send buffer").
const sendBufferHalf = 32 * 1024

// Build dispatches req per spec.md §4.9 and returns the response to
// send. webRoot is the sanitized filesystem root; c may be nil to skip
// caching entirely (not expected in production, useful in tests).
func Build(req *httpparse.Request, webRoot string, c *cache.Cache, st *stats.Stats, serverName string) Out {
	keepAliveDefault := req.ProtoMajor == 1 && req.ProtoMinor == 1

	switch req.Method {
	case httpparse.MethodOPTIONS:
		return buildOptions(serverName, keepAliveDefault)
	case httpparse.MethodGET, httpparse.MethodHEAD:
		return dispatch(req, webRoot, c, st, serverName, keepAliveDefault)
	default:
		return buildMethodNotAllowed(serverName, keepAliveDefault)
	}
}

func buildOptions(serverName string, keepAlive bool) Out {
	bd := &builder{}
	bd.statusLine(200)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("Allow", "GET, HEAD, OPTIONS")
	bd.header("Access-Control-Allow-Origin", "*")
	bd.header("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	bd.header("Access-Control-Allow-Headers", "*")
	bd.header("Content-Length", "0")
	return Out{Status: 200, Headers: bd.end(), KeepAlive: keepAlive}
}

func buildMethodNotAllowed(serverName string, keepAlive bool) Out {
	body := []byte("405 Method Not Allowed\n")
	bd := &builder{}
	bd.statusLine(405)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("Allow", "GET, HEAD, OPTIONS")
	bd.header("Content-Type", "text/plain; charset=utf-8")
	bd.header("Content-Length", fmt.Sprintf("%d", len(body)))
	return Out{Status: 405, Headers: bd.end(), Body: body, KeepAlive: keepAlive}
}

func isMetricsPath(uri string) bool {
	return uri == "/metrics" || uri == "/stats"
}

// dispatch implements spec.md §4.9 items 1-10 for GET/HEAD.
func dispatch(req *httpparse.Request, webRoot string, c *cache.Cache, st *stats.Stats, serverName string, keepAliveDefault bool) Out {
	if isMetricsPath(req.URI) {
		return buildMetrics(st, serverName)
	}

	fsPath, err := pathsafe.Sanitize(webRoot, req.URI)
	if err != nil {
		return buildPlainError(403, serverName, keepAliveDefault)
	}

	fi, err := os.Stat(fsPath)
	if err != nil {
		return buildPlainError(404, serverName, keepAliveDefault)
	}

	if fi.IsDir() {
		indexPath := joinPath(fsPath, "index.html")
		indexFi, err := os.Stat(indexPath)
		if err != nil || indexFi.IsDir() {
			if !dirlist.Disabled() {
				body, rerr := dirlist.Render(fsPath, req.URI)
				if rerr == nil {
					return buildDirListing(body, serverName, keepAliveDefault)
				}
			}
			return buildPlainError(404, serverName, keepAliveDefault)
		}
		fsPath = indexPath
		fi = indexFi
	}

	const maxFileSize = 100 * 1024 * 1024
	if fi.Size() > maxFileSize {
		return buildPlainError(413, serverName, keepAliveDefault)
	}

	contentType := ContentType(fsPath)
	mtime := fi.ModTime()
	etag := cache.ETag(fi.Size(), mtime)

	if matchesConditional(req, etag, mtime) {
		return buildNotModified(etag, mtime, serverName, keepAliveDefault)
	}

	head := req.Method == httpparse.MethodHEAD

	// Item 7: cache consultation — GET only, no Range, cache-eligible.
	if !head && !req.HasRange && c != nil && cache.Eligible(fi.Size()) {
		if out, ok := c.Get(fsPath, mtime, fi.Size()); ok {
			if st != nil {
				st.CacheHits.Add(1)
			}
			return buildFromCache(out, serverName, keepAliveDefault)
		}
		if st != nil {
			st.CacheMisses.Add(1)
		}
		if put, ok := c.Put(fsPath, contentType, mtime, fi.Size()); ok {
			return buildFromCache(put, serverName, keepAliveDefault)
		}
	}

	// Item 8: in-memory gzip fast path.
	if !head && !req.HasRange && compress.Compressible(contentType) &&
		fi.Size() <= sendBufferHalf && acceptsGzip(req.AcceptEncoding) {
		if out, ok := buildGzipped(fsPath, contentType, fi.Size(), mtime, serverName, keepAliveDefault); ok {
			return out
		}
	}

	// Item 9: Range request.
	if req.HasRange {
		return buildRangeOrWhole(req, fsPath, contentType, fi, serverName, keepAliveDefault, head)
	}

	// Item 10: whole-file transmission.
	return buildWholeFile(fsPath, contentType, fi, serverName, keepAliveDefault, head)
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

func acceptsGzip(acceptEncoding string) bool {
	return strings.Contains(acceptEncoding, "gzip")
}

// matchesConditional implements spec.md §4.9's conditional GET: equal
// ETag or equal Last-Modified date string means 304.
func matchesConditional(req *httpparse.Request, etag string, mtime time.Time) bool {
	if req.IfNoneMatch != "" && req.IfNoneMatch == etag {
		return true
	}
	if req.IfModifiedSince != "" && req.IfModifiedSince == httpDate(mtime) {
		return true
	}
	return false
}

func buildNotModified(etag string, mtime time.Time, serverName string, keepAlive bool) Out {
	bd := &builder{}
	bd.statusLine(304)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("ETag", etag)
	bd.header("Last-Modified", httpDate(mtime))
	return Out{Status: 304, Headers: bd.end(), KeepAlive: keepAlive}
}

func buildPlainError(status int, serverName string, keepAlive bool) Out {
	body := []byte(fmt.Sprintf("%d %s\n", status, statusText[status]))
	bd := &builder{}
	bd.statusLine(status)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("Content-Type", "text/plain; charset=utf-8")
	bd.header("Content-Length", fmt.Sprintf("%d", len(body)))
	return Out{Status: status, Headers: bd.end(), Body: body, KeepAlive: keepAlive}
}

func buildDirListing(body []byte, serverName string, keepAlive bool) Out {
	bd := &builder{}
	bd.statusLine(200)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("Content-Type", "text/html; charset=utf-8")
	bd.header("Content-Length", fmt.Sprintf("%d", len(body)))
	return Out{Status: 200, Headers: bd.end(), Body: body, KeepAlive: keepAlive}
}

func buildMetrics(st *stats.Stats, serverName string) Out {
	var body []byte
	if st != nil {
		body = st.Snapshot()
	} else {
		body = []byte("{}")
	}
	bd := &builder{}
	bd.statusLine(200)
	// spec.md §4.9 item 1: "no keep-alive restrictions" — always offer
	// keep-alive for the metrics endpoint regardless of protocol version.
	bd.securityAndConnectionHeaders(serverName, true)
	bd.header("Content-Type", "application/json; charset=utf-8")
	bd.header("Content-Length", fmt.Sprintf("%d", len(body)))
	return Out{Status: 200, Headers: bd.end(), Body: body, KeepAlive: true}
}

// buildFromCache wraps a cache hit's content headers (Content-Type,
// Content-Length, ETag, Last-Modified, Cache-Control) with the status
// line and the Server/Connection/security headers for the request
// actually being served, so a cached entry's Connection header always
// matches this request's keep-alive decision rather than whichever
// request first populated the cache.
func buildFromCache(out cache.Out, serverName string, keepAlive bool) Out {
	bd := &builder{}
	bd.statusLine(200)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.raw(out.Headers)
	return Out{Status: 200, Headers: bd.end(), Body: out.Body, KeepAlive: keepAlive}
}

func buildGzipped(fsPath, contentType string, size int64, mtime time.Time, serverName string, keepAlive bool) (Out, bool) {
	raw, err := os.ReadFile(fsPath)
	if err != nil {
		return Out{}, false
	}
	compressed := compress.Gzip(raw)

	bd := &builder{}
	bd.statusLine(200)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("Content-Type", contentType)
	bd.header("Content-Encoding", "gzip")
	bd.header("Content-Length", fmt.Sprintf("%d", len(compressed)))
	bd.header("ETag", cache.ETag(size, mtime))
	bd.header("Last-Modified", httpDate(mtime))
	bd.header("Vary", "Accept-Encoding")
	return Out{Status: 200, Headers: bd.end(), Body: compressed, KeepAlive: keepAlive}, true
}

func buildRangeOrWhole(req *httpparse.Request, fsPath, contentType string, fi os.FileInfo, serverName string, keepAlive bool, head bool) Out {
	size := fi.Size()
	r := httpparse.ParseRange([]byte(req.RangeHeader), size)
	if !r.Valid {
		bd := &builder{}
		bd.statusLine(416)
		bd.securityAndConnectionHeaders(serverName, keepAlive)
		bd.header("Content-Range", fmt.Sprintf("bytes */%d", size))
		bd.header("Content-Length", "0")
		return Out{Status: 416, Headers: bd.end(), KeepAlive: keepAlive}
	}

	length := r.End - r.Start + 1
	bd := &builder{}
	bd.statusLine(206)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("Content-Type", contentType)
	bd.header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size))
	bd.header("Content-Length", fmt.Sprintf("%d", length))
	bd.header("ETag", cache.ETag(size, fi.ModTime()))
	bd.header("Last-Modified", httpDate(fi.ModTime()))
	headers := bd.end()

	if head {
		return Out{Status: 206, Headers: headers, KeepAlive: keepAlive}
	}

	f, err := os.Open(fsPath)
	if err != nil {
		return buildPlainError(404, serverName, keepAlive)
	}
	return Out{Status: 206, Headers: headers, File: f, FileOffset: r.Start, FileLength: length, KeepAlive: keepAlive}
}

func buildWholeFile(fsPath, contentType string, fi os.FileInfo, serverName string, keepAlive bool, head bool) Out {
	size := fi.Size()
	mtime := fi.ModTime()

	bd := &builder{}
	bd.statusLine(200)
	bd.securityAndConnectionHeaders(serverName, keepAlive)
	bd.header("Content-Type", contentType)
	bd.header("Content-Length", fmt.Sprintf("%d", size))
	bd.header("ETag", cache.ETag(size, mtime))
	bd.header("Last-Modified", httpDate(mtime))
	bd.header("Cache-Control", "public, max-age=3600")
	headers := bd.end()

	if head {
		return Out{Status: 200, Headers: headers, KeepAlive: keepAlive}
	}

	f, err := os.Open(fsPath)
	if err != nil {
		return buildPlainError(404, serverName, keepAlive)
	}
	return Out{Status: 200, Headers: headers, File: f, FileOffset: 0, FileLength: size, KeepAlive: keepAlive}
}
