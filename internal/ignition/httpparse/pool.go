package httpparse

import "sync"

var requestPool = sync.Pool{
	New: func() any { return &Request{} },
}

// GetRequest returns a zeroed Request from the pool, mirroring the
// teacher's GetRequest/PutRequest pair (pkg/shockwave/http11/pool.go)
// used to keep keep-alive request handling allocation-free.
func GetRequest() *Request {
	return requestPool.Get().(*Request)
}

// PutRequest returns req to the pool. Callers must not retain references
// to req or its string fields after calling PutRequest.
func PutRequest(req *Request) {
	if req == nil {
		return
	}
	req.Reset()
	requestPool.Put(req)
}
