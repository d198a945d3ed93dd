package httpparse

import "bytes"

var crlfcrlf = []byte("\r\n\r\n")

// HeadersComplete reports whether buf contains a full request-line +
// header block (CRLF CRLF, or a bare-LF-tolerant variant). Connection
// state machines call this after every recv completion to decide whether
// to keep reading or hand the buffer to Parse (spec.md §4.8).
func HeadersComplete(buf []byte) bool {
	return findHeaderEnd(buf) >= 0
}

// findHeaderEnd returns the index just past the blank line terminating
// the header block, or -1 if the terminator has not arrived yet. It
// recognizes CRLF CRLF and LF LF (so also CRLF followed by a bare LF);
// a bare LF followed by CRLF is not recognized.
func findHeaderEnd(buf []byte) int {
	if i := bytes.Index(buf, crlfcrlf); i >= 0 {
		return i + len(crlfcrlf)
	}
	if i := bytes.Index(buf, []byte("\n\n")); i >= 0 {
		return i + 2
	}
	return -1
}

// Parse implements spec.md §4.5: tokenize the request line, validate the
// protocol version, and extract the four headers the core cares about.
// buf must contain at least one full header block (see HeadersComplete).
// On success *Request is filled and Valid is set; on a recognized-but-
// invalid request (bad version, oversized URI, unparseable line) Parse
// returns the sentinel error and leaves req.Valid false.
func Parse(buf []byte, req *Request) error {
	req.Reset()

	headerEnd := findHeaderEnd(buf)
	if headerEnd < 0 {
		return ErrIncomplete
	}
	block := buf[:headerEnd]

	lineEnd := bytes.IndexByte(block, lfByte)
	if lineEnd < 0 {
		return ErrRequestLine
	}
	line := block[:lineEnd]
	line = trimCR(line)

	methodEnd := bytes.IndexByte(line, spByte)
	if methodEnd < 0 {
		return ErrRequestLine
	}
	methodTok := line[:methodEnd]
	rest := line[methodEnd+1:]

	// Skip any extra spaces between method and URI.
	rest = bytes.TrimLeft(rest, " ")

	uriEnd := bytes.IndexByte(rest, spByte)
	if uriEnd < 0 {
		return ErrRequestLine
	}
	uriTok := rest[:uriEnd]
	versionTok := bytes.TrimLeft(rest[uriEnd+1:], " ")
	versionTok = bytes.TrimRight(versionTok, " ")

	if len(uriTok) > MaxURILen {
		return ErrURITooLong
	}

	// Strip query string at '?'.
	if q := bytes.IndexByte(uriTok, '?'); q >= 0 {
		uriTok = uriTok[:q]
	}

	major, minor, ok := parseVersion(versionTok)
	if !ok {
		return ErrVersion
	}

	req.Method = parseMethod(methodTok)
	req.URI = string(uriTok)
	req.ProtoMajor = major
	req.ProtoMinor = minor

	headerBlock := block[lineEnd+1:]
	req.IfNoneMatch = string(scanHeader(headerBlock, hdrIfNoneMatch))
	req.IfModifiedSince = string(scanHeader(headerBlock, hdrIfModifiedSince))
	req.AcceptEncoding = string(scanHeader(headerBlock, hdrAcceptEncoding))

	if rv := scanHeader(headerBlock, hdrRange); rv != nil {
		req.RangeHeader = string(rv)
		req.HasRange = true
	}

	req.Valid = true
	return nil
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == crByte {
		return b[:n-1]
	}
	return b
}

// parseVersion accepts only "HTTP/1.0" and "HTTP/1.1" per spec.md §3.
func parseVersion(tok []byte) (major, minor int, ok bool) {
	if bytes.Equal(tok, []byte("HTTP/1.1")) {
		return 1, 1, true
	}
	if bytes.Equal(tok, []byte("HTTP/1.0")) {
		return 1, 0, true
	}
	return 0, 0, false
}

// scanHeader finds header "name: value" within block (case-sensitive,
// per the consistent choice documented in constants.go) and returns the
// sanitized value (CR/LF/control bytes below 0x20 except TAB stripped),
// or nil if absent.
func scanHeader(block []byte, name []byte) []byte {
	search := block
	for {
		idx := bytes.Index(search, name)
		if idx < 0 {
			return nil
		}

		// Must be at start of a line.
		atLineStart := idx == 0 || search[idx-1] == lfByte
		if !atLineStart {
			search = search[idx+len(name):]
			continue
		}

		after := search[idx+len(name):]
		if len(after) == 0 || after[0] != ':' {
			search = search[idx+len(name):]
			continue
		}
		after = after[1:]

		// Skip linear whitespace (SP/TAB).
		for len(after) > 0 && (after[0] == spByte || after[0] == htByte) {
			after = after[1:]
		}

		end := bytes.IndexByte(after, lfByte)
		if end < 0 {
			end = len(after)
		}
		value := after[:end]
		value = trimCR(value)

		return sanitizeHeaderValue(value)
	}
}

// sanitizeHeaderValue strips bytes below 0x20 except TAB, matching
// spec.md §4.5's header-value sanitization rule.
func sanitizeHeaderValue(v []byte) []byte {
	clean := v[:0:0]
	dirty := false
	for _, b := range v {
		if b < 0x20 && b != htByte {
			dirty = true
			break
		}
	}
	if !dirty {
		return v
	}
	clean = make([]byte, 0, len(v))
	for _, b := range v {
		if b < 0x20 && b != htByte {
			continue
		}
		clean = append(clean, b)
	}
	return clean
}
