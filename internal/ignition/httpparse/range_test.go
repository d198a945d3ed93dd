package httpparse

import "testing"

func TestParseRangeStartEnd(t *testing.T) {
	r := ParseRange([]byte("bytes=100-199"), 10000)
	if !r.Valid || r.Start != 100 || r.End != 199 {
		t.Fatalf("got %+v", r)
	}
}

func TestParseRangeClampsEnd(t *testing.T) {
	r := ParseRange([]byte("bytes=100-99999"), 10000)
	if !r.Valid || r.End != 9999 {
		t.Fatalf("got %+v, want End clamped to 9999", r)
	}
}

func TestParseRangeOpenEnded(t *testing.T) {
	r := ParseRange([]byte("bytes=100-"), 10000)
	if !r.Valid || r.Start != 100 || r.End != 9999 {
		t.Fatalf("got %+v", r)
	}
}

func TestParseRangeSuffix(t *testing.T) {
	r := ParseRange([]byte("bytes=-500"), 10000)
	if !r.Valid || r.Start != 9500 || r.End != 9999 {
		t.Fatalf("got %+v", r)
	}
}

func TestParseRangeSuffixWholeFile(t *testing.T) {
	r := ParseRange([]byte("bytes=-10000"), 10000)
	if !r.Valid || r.Start != 0 || r.End != 9999 {
		t.Fatalf("suffix == file size should select whole file, got %+v", r)
	}
}

func TestParseRangeSuffixZeroInvalid(t *testing.T) {
	r := ParseRange([]byte("bytes=-0"), 10000)
	if r.Valid {
		t.Fatal("N=0 suffix must be invalid")
	}
}

func TestParseRangeStartAtFileSizeInvalid(t *testing.T) {
	r := ParseRange([]byte("bytes=10000-"), 10000)
	if r.Valid {
		t.Fatal("bytes=file_size- must be rejected")
	}
}

func TestParseRangeZeroByteFile(t *testing.T) {
	r := ParseRange([]byte("bytes=0-0"), 0)
	if r.Valid {
		t.Fatal("file size 0 must always be invalid")
	}
}

func TestParseRangeSingleByteFile(t *testing.T) {
	r := ParseRange([]byte("bytes=0-0"), 1)
	if !r.Valid || r.Start != 0 || r.End != 0 {
		t.Fatalf("got %+v, want valid single-byte range", r)
	}
}

func TestParseRangeMissingPrefix(t *testing.T) {
	r := ParseRange([]byte("0-100"), 10000)
	if r.Valid {
		t.Fatal("missing 'bytes=' prefix must be invalid")
	}
}

func TestParseRangeStartGreaterThanEnd(t *testing.T) {
	r := ParseRange([]byte("bytes=200-100"), 10000)
	if r.Valid {
		t.Fatal("S > E must be invalid")
	}
}
