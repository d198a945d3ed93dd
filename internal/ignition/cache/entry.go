package cache

import "time"

// Entry is spec.md §3's "Cache entry": a fully-built response (headers +
// body) for one (path, size, mtime) triple.
//
// A slot has three states: virgin (used=false, tombstone=false, never
// written), deleted (used=false, tombstone=true, evicted but still part
// of a probe chain), and live (used=true). Probing must continue through
// deleted slots — stopping at them the way it stops at virgin slots would
// orphan any live entry further along the same chain.
type Entry struct {
	used      bool
	tombstone bool
	path      string
	hash      uint32
	size      int64
	mtime     int64 // unix nanoseconds
	headers   []byte
	body      []byte
	total     int
	lastUsed  int64 // monotonically increasing tick, not wall time
}

// matches reports whether this entry is still fresh for (size, mtime).
// spec.md §4.4: "Stale means (size, mtime) differ. Timestamp equality is
// sufficient for freshness."
func (e *Entry) matches(path string, size int64, mtime time.Time) bool {
	return e.used && e.path == path && e.size == size && e.mtime == mtime.UnixNano()
}
