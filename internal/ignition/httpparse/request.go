package httpparse

// Range describes a parsed byte-range request (spec.md §3, §4.5).
type Range struct {
	Start   int64
	End     int64
	Present bool // a Range header was supplied at all
	Valid   bool // the supplied Range header parsed to a satisfiable range
}

// Request is the parsed form of spec.md §3's "Request" data model. All
// string fields are copies (not references into the connection's receive
// buffer) so a Request can outlive the buffer generation that produced
// it — required because the cache and response builder read it after
// the state machine may have already re-armed the receive.
type Request struct {
	Method Method
	URI    string // query stripped at '?', ≤ MaxURILen bytes

	IfNoneMatch     string
	IfModifiedSince string
	AcceptEncoding  string

	// RangeHeader is the raw "Range" header value, if present. The
	// response builder resolves it against the real file size via
	// ParseRange once the target file has been stat'd — range validity
	// depends on file size, which the parser does not have.
	RangeHeader string
	HasRange    bool

	ProtoMajor int
	ProtoMinor int

	Valid bool
}

// Reset clears r for reuse from a pool.
func (r *Request) Reset() {
	r.Method = MethodGET
	r.URI = ""
	r.IfNoneMatch = ""
	r.IfModifiedSince = ""
	r.AcceptEncoding = ""
	r.RangeHeader = ""
	r.HasRange = false
	r.ProtoMajor = 0
	r.ProtoMinor = 0
	r.Valid = false
}
