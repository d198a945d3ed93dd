package response

import (
	"path/filepath"
	"strings"
)

// textLikeTypes get "; charset=utf-8" appended per spec.md §4.9 item 6.
var textLikeTypes = map[string]bool{
	"text/html":               true,
	"text/plain":               true,
	"text/css":                true,
	"text/csv":                true,
	"application/json":         true,
	"application/xml":          true,
	"application/javascript":   true,
	"application/xhtml+xml":    true,
}

var extToMIME = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".woff": "font/woff",
	".woff2": "font/woff2",
	".ttf":  "font/ttf",
	".pdf":  "application/pdf",
	".wasm": "application/wasm",
	".zip":  "application/zip",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
}

// ContentType derives a response Content-Type from a file's extension,
// appending "; charset=utf-8" for text-like types (spec.md §4.9 item 6).
// Unknown extensions fall back to application/octet-stream.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	ct, ok := extToMIME[ext]
	if !ok {
		ct = "application/octet-stream"
	}
	if textLikeTypes[ct] {
		ct += "; charset=utf-8"
	}
	return ct
}
