package connpool

import (
	"sync"
	"sync/atomic"
)

// Default buffer sizes. spec.md §4.2 prose says "receive 8 KiB" but §4.8's
// MAX_REQUEST_SIZE and §8's testable boundary ("recv buffer exactly one
// byte short of CRLF CRLF at 16 KiB") both require the buffer to actually
// hold 16 KiB; the more specific, testable figure wins (see DESIGN.md).
const (
	DefaultRecvBufSize = 16 * 1024
	DefaultSendBufSize = 64 * 1024
)

// Pool is the fixed-capacity connection record pool, spec.md §4.2: "At
// startup the pool allocates N connection records and two aligned
// buffers per record." acquire/release run under a short exclusion
// protecting a singly linked (index-based) free list.
type Pool struct {
	records []Conn

	mu       sync.Mutex
	freeHead int32 // index of first free record, -1 if none

	active atomic.Int64
}

// New pre-allocates capacity connection records plus their receive and
// send buffers.
func New(capacity int, recvBufSize, sendBufSize int) *Pool {
	if recvBufSize <= 0 {
		recvBufSize = DefaultRecvBufSize
	}
	if sendBufSize <= 0 {
		sendBufSize = DefaultSendBufSize
	}

	p := &Pool{
		records: make([]Conn, capacity),
	}

	for i := range p.records {
		c := &p.records[i]
		c.Index = int32(i)
		c.RecvBuf = make([]byte, recvBufSize)
		c.SendBuf = make([]byte, sendBufSize)
		c.State = StateFree
		if i == capacity-1 {
			c.next = -1
		} else {
			c.next = int32(i + 1)
		}
	}
	if capacity > 0 {
		p.freeHead = 0
	} else {
		p.freeHead = -1
	}

	return p
}

// Capacity returns the fixed number of connection records in the pool.
func (p *Pool) Capacity() int { return len(p.records) }

// Active returns the number of currently-acquired records.
func (p *Pool) Active() int64 { return p.active.Load() }

// FreeLen returns the current free-list length. Paired with Active(),
// this satisfies spec.md §8's invariant
// "acquired + free_list_len == pool capacity".
func (p *Pool) FreeLen() int {
	n := 0
	p.mu.Lock()
	for i := p.freeHead; i != -1; i = p.records[i].next {
		n++
	}
	p.mu.Unlock()
	return n
}

// Acquire pops a record off the free list and marks it Accepting. It
// returns ErrExhausted when the pool is at capacity.
func (p *Pool) Acquire() (*Conn, error) {
	p.mu.Lock()
	if p.freeHead == -1 {
		p.mu.Unlock()
		return nil, ErrExhausted
	}
	idx := p.freeHead
	c := &p.records[idx]
	p.freeHead = c.next
	c.next = -1
	p.mu.Unlock()

	c.State = StateAccepting
	c.Touch()
	p.active.Add(1)
	return c, nil
}

// Release invalidates the socket and file handle and returns c to the
// free list, per spec.md §4.2: "release invalidates the socket and file
// handle before linking."
func (p *Pool) Release(c *Conn) {
	if c.Socket != nil {
		c.Socket.Close()
	}
	if c.File != nil {
		c.File.Close()
	}
	c.reset()

	p.mu.Lock()
	c.next = p.freeHead
	p.freeHead = c.Index
	p.mu.Unlock()

	p.active.Add(-1)
}
