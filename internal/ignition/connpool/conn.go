// Package connpool owns every connection record for the process
// lifetime (spec.md §3 "Ownership"): a fixed-capacity free list of
// pre-allocated Conn records plus their receive/send buffers, following
// the teacher's BaseServer connection-tracking shape
// (pkg/shockwave/server/server.go trackConnection/untrackConnection)
// generalized into an explicit pool instead of a map, and the Design
// Notes §9 guidance to use free-list indices instead of raw pointers.
package connpool

import (
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/yourusername/ignition/internal/ignition/httpparse"
)

// State is the connection's position in the spec.md §4.8 state machine.
type State int32

const (
	StateFree State = iota
	StateAccepting
	StateReading
	StateProcessing
	StateSending
	StateSendingFile
	StateKeepAlive
	StateClosing
	StateClosed
)

// Conn is spec.md §3's "Connection record". Every field the state
// machine (C8) and response builder (C9) touch lives here so a
// connection's entire lifecycle state is one allocation, acquired once
// at pool creation and never freed until process shutdown.
type Conn struct {
	// Index is this record's position in Pool.records; it is also the
	// stable identity used by the reactor's completion tokens.
	Index int32
	next  int32 // free-list link; -1 when not on the free list

	State State

	Socket net.Conn

	RecvBuf    []byte
	RecvOffset int

	SendBuf     []byte
	BytesQueued int
	BytesSent   int

	Request   *httpparse.Request
	KeepAlive bool

	RequestsServed int

	File     *os.File
	FileSize int64
	FileSent int64

	ClientIP     uint32
	ConnectTime  time.Time
	LastActivity atomic.Int64 // unix nanoseconds

	ArenaID int

	// RecvPending/SendPending enforce spec.md §3's invariant that a
	// receive and a send are never simultaneously outstanding, and that
	// at most one operation of either kind is in flight.
	RecvPending bool
	SendPending bool
}

// Touch stamps LastActivity with the current time; called on every
// completion so timeout checks (spec.md §4.8) have a fresh reference.
func (c *Conn) Touch() {
	c.LastActivity.Store(time.Now().UnixNano())
}

// IdleSince returns how long it has been since the connection's last
// recorded activity.
func (c *Conn) IdleSince() time.Duration {
	return time.Since(time.Unix(0, c.LastActivity.Load()))
}

// reset restores a record to its free state without reallocating its
// buffers, invoked by Pool.Release. The keep-alive reset (spec.md §4.8)
// uses ResetForKeepAlive instead, which keeps the socket and counter.
func (c *Conn) reset() {
	c.Socket = nil
	c.RecvOffset = 0
	c.BytesQueued = 0
	c.BytesSent = 0
	c.Request = nil
	c.KeepAlive = false
	c.RequestsServed = 0
	c.File = nil
	c.FileSize = 0
	c.FileSent = 0
	c.ClientIP = 0
	c.RecvPending = false
	c.SendPending = false
	c.State = StateFree
}

// ResetForKeepAlive clears per-request state while keeping the socket,
// buffers, and request counter intact, per spec.md §4.8.
func (c *Conn) ResetForKeepAlive() {
	if c.File != nil {
		c.File.Close()
		c.File = nil
	}
	c.RecvOffset = 0
	c.BytesQueued = 0
	c.BytesSent = 0
	c.FileSize = 0
	c.FileSent = 0
	c.Request = nil
	c.RecvPending = false
	c.SendPending = false
	c.Touch()
}
