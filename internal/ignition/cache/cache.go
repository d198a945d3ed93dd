// Package cache implements spec.md §4.4's small-file response cache: a
// fixed-capacity, open-addressed table of fully pre-built HTTP responses
// keyed by file path, evicted by staleness and then by global LRU.
package cache

import (
	"hash/fnv"
	"io"
	"os"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Capacity is spec.md §4.4's fixed slot count for the open-addressed
// table (CAPACITY).
const Capacity = 2048

// MaxEntrySize bounds a whole cache entry, headers plus body (spec.md
// §4.4 MAX_ENTRY_SIZE). Bodies larger than MaxEntrySize-HeaderReserve are
// served uncached (see Eligible).
const MaxEntrySize = 48 * 1024

// HeaderReserve is the header-block allowance added on top of a body
// when checking MaxTotalBytes (HEADER_RESERVE).
const HeaderReserve = 1024

// MaxTotalBytes bounds the sum of all resident entries (MAX_TOTAL_BYTES).
const MaxTotalBytes = 64 * 1024 * 1024

// Out is what Get hands back on a hit: the pre-built header block and
// body, ready to be written to a connection's send buffer as-is.
type Out struct {
	Headers []byte
	Body    []byte
}

// Cache is the fixed-size small-file response cache.
type Cache struct {
	mu         sync.RWMutex
	slots      [Capacity]Entry
	totalBytes int64
	tick       int64
}

// New creates an empty Cache. Cached entries store only the
// content-specific headers (Content-Type, Content-Length, ETag,
// Last-Modified, Cache-Control) — the response builder wraps them with
// the status line, Server, Connection, and security headers, since
// those last two depend on the serving request's keep-alive decision
// rather than anything fixed at cache-fill time.
func New() *Cache {
	return &Cache{}
}

func hashPath(path string) uint32 {
	h := fnv.New32a()
	_, _ = io.WriteString(h, path)
	return h.Sum32()
}

func slotFor(hash uint32) int {
	return int(hash % Capacity)
}

// Get looks up path for the given (mtime, size). It returns the cached
// response and true on a fresh hit; otherwise false, meaning the caller
// must read the file itself and may call Put to populate the cache.
func (c *Cache) Get(path string, mtime time.Time, size int64) (Out, bool) {
	hash := hashPath(path)

	c.mu.RLock()
	idx := slotFor(hash)
	for probe := 0; probe < Capacity; probe++ {
		e := &c.slots[(idx+probe)%Capacity]
		if !e.used && !e.tombstone {
			break
		}
		if e.used && e.hash == hash && e.matches(path, size, mtime) {
			out := Out{Headers: e.headers, Body: e.body}
			c.mu.RUnlock()
			c.touch(e)
			return out, true
		}
	}
	c.mu.RUnlock()
	return Out{}, false
}

// touch bumps an entry's LRU tick under a brief exclusive lock. Split
// out from Get's read-locked scan since spec.md §4.4 allows lastUsed
// updates to race with concurrent readers ("monotonic counters, never
// required to be perfectly consistent").
func (c *Cache) touch(e *Entry) {
	c.mu.Lock()
	e.lastUsed = c.nextTick()
	c.mu.Unlock()
}

func (c *Cache) nextTick() int64 {
	c.tick++
	return c.tick
}

// maxCacheableBody is spec.md §4.4's eligibility ceiling:
// MAX_ENTRY_SIZE - HEADER_RESERVE.
const maxCacheableBody = MaxEntrySize - HeaderReserve

// Eligible reports whether a file of this size is small enough to be
// worth caching at all, letting the response builder skip a doomed
// Put call. Spec.md §4.4: "0 < size ≤ MAX_ENTRY_SIZE − HEADER_RESERVE".
func Eligible(size int64) bool {
	return size > 0 && size <= maxCacheableBody
}

// Put loads path from disk and inserts it into the cache, evicting
// entries as needed per spec.md §4.4 steps 1-7. Any stat mismatch,
// allocation failure, or read error leaves the cache unchanged and
// returns false; the caller already has (or can still produce) an
// uncached response and does not need Put to succeed.
func (c *Cache) Put(path, contentType string, mtime time.Time, size int64) (Out, bool) {
	if !Eligible(size) {
		return Out{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return Out{}, false
	}
	defer f.Close()

	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)
	body.Reset()
	if _, err := io.CopyN(body, f, size); err != nil {
		return Out{}, false
	}

	headers := buildHeaders(contentType, size, mtime)
	bodyCopy := append([]byte(nil), body.B...)
	needed := int64(len(headers)) + int64(len(bodyCopy))

	hash := hashPath(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slotFor(hash)
	slot := -1
	reuse := -1

	// Step 1-2: scan the probe sequence for a stale entry for the same
	// path (evicting it in place) or, failing that, the first reusable
	// (virgin or tombstoned) slot along the chain. Tombstones do not
	// terminate the chain the way a virgin slot does — a live entry for
	// a different path may have probed past an earlier deletion, so the
	// scan must keep going until it hits a slot that was never written.
	for probe := 0; probe < Capacity; probe++ {
		i := (idx + probe) % Capacity
		e := &c.slots[i]
		if e.used && e.hash == hash && e.path == path {
			c.evict(e)
			slot = i
			break
		}
		if !e.used {
			if reuse == -1 {
				reuse = i
			}
			if !e.tombstone {
				break
			}
		}
	}
	if slot == -1 {
		slot = reuse
	}

	// Step 3: no empty or stale slot along the probe sequence - evict
	// the globally least-recently-used entry and reuse its slot.
	if slot == -1 {
		slot = c.evictGlobalLRU()
		if slot == -1 {
			return Out{}, false
		}
	}

	// Step 5: make room under the total-bytes cap by evicting the
	// global LRU repeatedly, skipping the slot we are about to fill.
	for c.totalBytes+needed+HeaderReserve > MaxTotalBytes {
		victim := c.evictGlobalLRUExcept(slot)
		if victim == -1 {
			break
		}
	}
	if c.totalBytes+needed > MaxTotalBytes {
		return Out{}, false
	}

	e := &c.slots[slot]
	e.used = true
	e.tombstone = false
	e.path = path
	e.hash = hash
	e.size = size
	e.mtime = mtime.UnixNano()
	e.headers = headers
	e.body = bodyCopy
	e.total = len(headers) + len(bodyCopy)
	e.lastUsed = c.nextTick()
	c.totalBytes += int64(e.total)

	return Out{Headers: e.headers, Body: e.body}, true
}

// evict clears a single entry and releases its accounted bytes, leaving
// a tombstone behind so the slot's probe chain stays intact for other
// paths that hashed into the same bucket. Caller holds the write lock.
func (c *Cache) evict(e *Entry) {
	c.totalBytes -= int64(e.total)
	*e = Entry{tombstone: true}
}

// evictGlobalLRU finds and clears the slot with the smallest lastUsed
// tick among used entries, returning its index, or -1 if the table is
// empty.
func (c *Cache) evictGlobalLRU() int {
	return c.evictGlobalLRUExcept(-1)
}

func (c *Cache) evictGlobalLRUExcept(skip int) int {
	oldest := -1
	var oldestTick int64
	for i := range c.slots {
		if i == skip || !c.slots[i].used {
			continue
		}
		if oldest == -1 || c.slots[i].lastUsed < oldestTick {
			oldest = i
			oldestTick = c.slots[i].lastUsed
		}
	}
	if oldest == -1 {
		return -1
	}
	c.evict(&c.slots[oldest])
	return oldest
}

// Invalidate drops path from the cache unconditionally. Get already
// misses on a (size, mtime) change, and Put replaces the stale entry.
func (c *Cache) Invalidate(path string) {
	hash := hashPath(path)
	idx := slotFor(hash)

	c.mu.Lock()
	defer c.mu.Unlock()

	for probe := 0; probe < Capacity; probe++ {
		e := &c.slots[(idx+probe)%Capacity]
		if !e.used && !e.tombstone {
			return
		}
		if e.used && e.hash == hash && e.path == path {
			c.evict(e)
			return
		}
	}
}

// Stats reports the cache's current occupancy.
type Stats struct {
	Entries    int
	TotalBytes int64
}

// Snapshot returns the current occupancy.
func (c *Cache) Snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for i := range c.slots {
		if c.slots[i].used {
			n++
		}
	}
	return Stats{Entries: n, TotalBytes: c.totalBytes}
}
