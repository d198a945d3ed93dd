// Package ratelimit implements the per-source-IP admission gate from
// spec.md §4.3: a fixed bucket table of chained (ip, count, last_seen)
// entries guarded by a single exclusion. It is deliberately the
// simplest of the four core subsystems — chaining plus lazy eviction,
// no background sweep — mirroring the teacher's habit of reaching for
// a plain map + mutex for anything that is not on the zero-allocation
// hot path (see pkg/shockwave/server/server.go's conns map).
package ratelimit

import (
	"sync"
	"time"
)

// PerIPLimit is the default admitted-connection ceiling per IP,
// spec.md §4.3 PER_IP_LIMIT.
const PerIPLimit = 64

// sentinelIP is the "unknown" address spec.md §4.3 says must be
// accepted without being tracked.
const sentinelIP uint32 = 0

type entry struct {
	ip       uint32
	count    int
	lastSeen time.Time
	next     *entry
}

// Limiter is a fixed-size chained hash table keyed by ip mod bucketCount.
type Limiter struct {
	mu      sync.Mutex
	buckets []*entry
	limit   int
}

// New creates a Limiter with bucketCount buckets and the given per-IP
// admission limit.
func New(bucketCount, limit int) *Limiter {
	if bucketCount <= 0 {
		bucketCount = 4096
	}
	if limit <= 0 {
		limit = PerIPLimit
	}
	return &Limiter{
		buckets: make([]*entry, bucketCount),
		limit:   limit,
	}
}

func (l *Limiter) bucket(ip uint32) int {
	return int(ip) % len(l.buckets)
}

// Check reports whether ip currently has fewer than the per-IP limit of
// active connections. The sentinel IP 0 is always admitted.
func (l *Limiter) Check(ip uint32) bool {
	if ip == sentinelIP {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for e := l.buckets[l.bucket(ip)]; e != nil; e = e.next {
		if e.ip == ip {
			return e.count < l.limit
		}
	}
	return true
}

// Increment records one more active connection for ip, creating the
// entry on first use. If the table cannot allocate an entry it admits
// the connection untracked (spec.md §4.3 "Failure mode on allocation:
// silently admit without tracking, since rate limiting is defensive,
// not authoritative").
func (l *Limiter) Increment(ip uint32) {
	if ip == sentinelIP {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.bucket(ip)
	for e := l.buckets[idx]; e != nil; e = e.next {
		if e.ip == ip {
			e.count++
			e.lastSeen = time.Now()
			return
		}
	}

	e := &entry{ip: ip, count: 1, lastSeen: time.Now(), next: l.buckets[idx]}
	l.buckets[idx] = e
}

// Decrement drops ip's active count by one and unlinks the entry once
// it reaches zero. The zero test consults only the just-decremented
// value (spec.md §9: fixes a read-after-decrement race present in the
// source by never re-reading count after the decrement that might free
// it).
func (l *Limiter) Decrement(ip uint32) {
	if ip == sentinelIP {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.bucket(ip)
	var prev *entry
	for e := l.buckets[idx]; e != nil; e = e.next {
		if e.ip == ip {
			e.count--
			newCount := e.count
			if newCount <= 0 {
				if prev == nil {
					l.buckets[idx] = e.next
				} else {
					prev.next = e.next
				}
			}
			return
		}
		prev = e
	}
}

// ActiveCount returns ip's currently tracked active-connection count, or
// 0 if untracked. Exposed for tests and the /metrics snapshot.
func (l *Limiter) ActiveCount(ip uint32) int {
	if ip == sentinelIP {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for e := l.buckets[l.bucket(ip)]; e != nil; e = e.next {
		if e.ip == ip {
			return e.count
		}
	}
	return 0
}
