package httpparse

import "testing"

func TestParseSimpleGET(t *testing.T) {
	raw := "GET /index.html?x=1 HTTP/1.1\r\nHost: h\r\n\r\n"
	req := &Request{}
	if err := Parse([]byte(raw), req); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !req.Valid {
		t.Fatal("expected valid request")
	}
	if req.Method != MethodGET {
		t.Fatalf("Method = %v, want GET", req.Method)
	}
	if req.URI != "/index.html" {
		t.Fatalf("URI = %q, want /index.html (query stripped)", req.URI)
	}
	if req.ProtoMajor != 1 || req.ProtoMinor != 1 {
		t.Fatalf("proto = %d.%d, want 1.1", req.ProtoMajor, req.ProtoMinor)
	}
}

func TestParseConditionalHeaders(t *testing.T) {
	raw := "GET /x HTTP/1.1\r\nIf-None-Match: \"abc\"\r\nIf-Modified-Since: Sun, 06 Nov 1994\r\nAccept-Encoding: gzip, deflate\r\n\r\n"
	req := &Request{}
	if err := Parse([]byte(raw), req); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if req.IfNoneMatch != `"abc"` {
		t.Fatalf("IfNoneMatch = %q", req.IfNoneMatch)
	}
	if req.IfModifiedSince != "Sun, 06 Nov 1994" {
		t.Fatalf("IfModifiedSince = %q", req.IfModifiedSince)
	}
	if req.AcceptEncoding != "gzip, deflate" {
		t.Fatalf("AcceptEncoding = %q", req.AcceptEncoding)
	}
}

func TestParseRangeHeaderCaptured(t *testing.T) {
	raw := "GET /big.bin HTTP/1.1\r\nRange: bytes=100-199\r\n\r\n"
	req := &Request{}
	if err := Parse([]byte(raw), req); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !req.HasRange || req.RangeHeader != "bytes=100-199" {
		t.Fatalf("HasRange=%v RangeHeader=%q", req.HasRange, req.RangeHeader)
	}
}

func TestParseRejectsBadVersion(t *testing.T) {
	raw := "GET / HTTP/2.0\r\n\r\n"
	req := &Request{}
	if err := Parse([]byte(raw), req); err != ErrVersion {
		t.Fatalf("err = %v, want ErrVersion", err)
	}
	if req.Valid {
		t.Fatal("request should be invalid")
	}
}

func TestParseURILengthBoundary(t *testing.T) {
	mk := func(n int) []byte {
		b := make([]byte, 0, n+32)
		b = append(b, "GET /"...)
		for i := 0; i < n-1; i++ {
			b = append(b, 'a')
		}
		b = append(b, " HTTP/1.1\r\n\r\n"...)
		return b
	}

	req := &Request{}
	if err := Parse(mk(MaxURILen), req); err != nil {
		t.Fatalf("exactly MaxURILen should be accepted: %v", err)
	}

	req2 := &Request{}
	if err := Parse(mk(MaxURILen+1), req2); err != ErrURITooLong {
		t.Fatalf("MaxURILen+1 should be rejected, got %v", err)
	}
}

func TestHeadersCompleteDetectsBoundary(t *testing.T) {
	if HeadersComplete([]byte("GET / HTTP/1.1\r\nHost: h\r\n\r")) {
		t.Fatal("one byte short of CRLF CRLF must not be complete")
	}
	if !HeadersComplete([]byte("GET / HTTP/1.1\r\nHost: h\r\n\r\n")) {
		t.Fatal("full CRLF CRLF must be detected complete")
	}
}

func TestUnknownMethodStillParses(t *testing.T) {
	req := &Request{}
	if err := Parse([]byte("DELETE /x HTTP/1.1\r\n\r\n"), req); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if req.Method != MethodUnknown {
		t.Fatalf("Method = %v, want MethodUnknown", req.Method)
	}
	if !req.Valid {
		t.Fatal("unknown method is still a structurally valid request (rejected later at dispatch)")
	}
}

func TestSanitizeHeaderValueStripsControlBytes(t *testing.T) {
	raw := "GET /x HTTP/1.1\r\nIf-None-Match: \"a\x01b\x02\"\r\n\r\n"
	req := &Request{}
	if err := Parse([]byte(raw), req); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if req.IfNoneMatch != `"ab"` {
		t.Fatalf("IfNoneMatch = %q, want control bytes stripped", req.IfNoneMatch)
	}
}
