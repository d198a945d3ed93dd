// Package pathsafe turns an HTTP request URI into a filesystem path
// underneath a fixed web root, defending against traversal, reserved
// device names, and alternate-data-stream syntax, per spec.md §4.6.
package pathsafe

import (
	"path/filepath"
	"strconv"
	"strings"
)

// MaxPath bounds the raw (still-encoded) URI length accepted by
// Sanitize, checked before any decoding happens (spec.md §4.6 rule 1).
const MaxPath = 4096

var reservedDeviceNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// Sanitize maps uri (the parsed, query-stripped request path) onto a
// real filesystem path rooted at webRoot, returning ErrForbidden for any
// rule violation in spec.md §4.6.
func Sanitize(webRoot, uri string) (string, error) {
	// Rule 1: raw length cap.
	if len(uri) >= MaxPath {
		return "", ErrForbidden
	}

	// Rule 2: URL-decode (%XX with both hex digits; '+' -> space).
	decoded, err := percentDecode(uri)
	if err != nil {
		return "", ErrForbidden
	}

	// Rule 3: reject dangerous raw substrings post-decode.
	if strings.ContainsRune(decoded, 0) {
		return "", ErrForbidden
	}
	for _, bad := range []string{"..", "//", `\\`, `\..`, `..\`} {
		if strings.Contains(decoded, bad) {
			return "", ErrForbidden
		}
	}

	// Rule 4: character allowlist.
	for _, r := range decoded {
		if !isAllowedChar(r) {
			return "", ErrForbidden
		}
	}

	// Rule 5: first post-slash component must not start with '.' (hidden files).
	trimmed := strings.TrimLeft(decoded, `/\`)
	if trimmed != "" {
		firstSlash := strings.IndexAny(trimmed, `/\`)
		first := trimmed
		if firstSlash >= 0 {
			first = trimmed[:firstSlash]
		}
		if strings.HasPrefix(first, ".") {
			return "", ErrForbidden
		}
	}

	// Rule 6: normalize separators; Rule 7: algebraic '.'/'..' evaluation.
	normalized := strings.ReplaceAll(decoded, `\`, "/")
	parts := strings.Split(normalized, "/")
	stack := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", ErrForbidden
			}
			stack = stack[:len(stack)-1]
		default:
			if isReservedComponent(p) {
				return "", ErrForbidden
			}
			if strings.ContainsRune(p, ':') {
				return "", ErrForbidden
			}
			stack = append(stack, p)
		}
	}

	// Rule 8: re-prepend web root and verify containment.
	cleanRoot := filepath.Clean(webRoot)
	full := cleanRoot
	for _, c := range stack {
		full = filepath.Join(full, c)
	}
	full = filepath.Clean(full)

	if full != cleanRoot && !strings.HasPrefix(full, cleanRoot+string(filepath.Separator)) {
		return "", ErrForbidden
	}

	return full, nil
}

func isAllowedChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '-', r == '/', r == '\\', r == ' ':
		return true
	}
	return false
}

// isReservedComponent rejects Windows device names, case-insensitively,
// with or without an extension (spec.md §4.6).
func isReservedComponent(component string) bool {
	base := component
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return reservedDeviceNames[strings.ToLower(base)]
}

func percentDecode(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			b.WriteByte(' ')
		case '%':
			if i+2 >= len(s) {
				return "", errBadEscape
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", errBadEscape
			}
			b.WriteByte(byte(v))
			i += 2
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

var errBadEscape = ErrForbidden
