// Package stats holds the server's atomic counters and produces the
// JSON snapshot served by the §4.9 item 1 /metrics and /stats dispatch
// branch. Field set mirrors pkg/shockwave/server/server.go's Stats
// struct, widened with cache and rate-limiter counters this spec adds.
package stats

import (
	"encoding/json"
	"sync/atomic"
)

// Stats is the set of monotonic counters tracked for the process
// lifetime. Spec.md §5: "monotonic atomic statistics counters, never
// required to be perfectly consistent across reads."
type Stats struct {
	TotalConnections  atomic.Uint64
	ActiveConnections atomic.Int64
	TotalRequests     atomic.Uint64
	BytesRead         atomic.Uint64
	BytesWritten      atomic.Uint64
	ConnectionErrors  atomic.Uint64
	RequestErrors     atomic.Uint64
	CacheHits         atomic.Uint64
	CacheMisses       atomic.Uint64
	RateLimitRejects  atomic.Uint64
}

// Snapshot is the JSON-serializable view Snapshot() renders.
type Snapshot struct {
	TotalConnections  uint64 `json:"total_connections"`
	ActiveConnections int64  `json:"active_connections"`
	TotalRequests     uint64 `json:"total_requests"`
	BytesRead         uint64 `json:"bytes_read"`
	BytesWritten      uint64 `json:"bytes_written"`
	ConnectionErrors  uint64 `json:"connection_errors"`
	RequestErrors     uint64 `json:"request_errors"`
	CacheHits         uint64 `json:"cache_hits"`
	CacheMisses       uint64 `json:"cache_misses"`
	RateLimitRejects  uint64 `json:"rate_limit_rejects"`
}

// Snapshot renders the current counter values as a JSON body. Marshal
// errors cannot occur for this fixed, all-numeric struct, so Snapshot
// discards json.Marshal's error and returns only the bytes.
func (s *Stats) Snapshot() []byte {
	snap := Snapshot{
		TotalConnections:  s.TotalConnections.Load(),
		ActiveConnections: s.ActiveConnections.Load(),
		TotalRequests:     s.TotalRequests.Load(),
		BytesRead:         s.BytesRead.Load(),
		BytesWritten:      s.BytesWritten.Load(),
		ConnectionErrors:  s.ConnectionErrors.Load(),
		RequestErrors:     s.RequestErrors.Load(),
		CacheHits:         s.CacheHits.Load(),
		CacheMisses:       s.CacheMisses.Load(),
		RateLimitRejects:  s.RateLimitRejects.Load(),
	}
	b, _ := json.Marshal(snap)
	return b
}
