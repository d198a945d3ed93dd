//go:build !dirlisting

// Package dirlist provides an optional HTML directory index, compiled in
// only under the dirlisting build tag per spec.md §1's "stubbed
// placeholder... for this spec's purposes" framing. Without the tag,
// directory requests lacking an index.html simply 404 (§4.9 item 4).
package dirlist

// Disabled reports whether directory listing was compiled out.
func Disabled() bool { return true }

// Render is never called when Disabled reports true.
func Render(string, string) ([]byte, error) {
	return nil, errNotCompiled
}
