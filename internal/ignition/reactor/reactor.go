// Package reactor implements spec.md §4.7's completion-based I/O
// multiplexer. Go has no native IOCP/kqueue-completion-port primitive, so
// each post_* call here starts a goroutine that performs the blocking
// syscall and funnels its result onto a single shared channel — the
// channel plays the role of the completion port, and get_completion is
// just a receive with a timeout. This keeps the operation vocabulary and
// single-outstanding-operation discipline of the spec while using the
// idiom the teacher already reaches for elsewhere (pkg/shockwave/server's
// per-connection goroutine model) instead of emulating IOCP literally.
package reactor

import (
	"net"
	"os"
	"time"

	"github.com/yourusername/ignition/internal/ignition/connpool"
	"github.com/yourusername/ignition/internal/ignition/socket"
)

// OpKind identifies which post_* call produced a Completion.
type OpKind int

const (
	OpAccept OpKind = iota
	OpRecv
	OpSend
	OpTransmitFile
	OpDisconnect
	OpShutdown
)

// preReadWindow bounds how long post_accept waits for the "up to 1 KiB of
// initial recv bytes" spec.md §4.7 allows to ride along with an accept
// completion. A connection with no immediate data simply completes with
// zero pre-read bytes once this elapses.
const preReadWindow = 2 * time.Millisecond

// preReadCap is the 1 KiB ceiling on accept-time pre-read bytes.
const preReadCap = 1024

// Completion is the (bytes_transferred, overlapped_key) pair
// get_completion returns, widened with whatever the caller needs to
// resume the connection's state machine.
type Completion struct {
	Kind OpKind

	// Conn is the overlapped_key for every op except OpAccept, whose
	// caller does not yet own a connection record.
	Conn *connpool.Conn

	// Slot is the accept-slot index, meaningful only for OpAccept.
	Slot int

	// Socket and PreRead/RemoteIP are populated by a successful OpAccept.
	Socket   net.Conn
	PreRead  []byte
	RemoteIP uint32

	Bytes int
	Err   error
}

// Reactor is the completion queue shared by every worker's get_completion
// loop.
type Reactor struct {
	listener    net.Listener
	completions chan Completion
}

// New creates a Reactor bound to listener with the given completion
// queue depth.
func New(listener net.Listener, queueDepth int) *Reactor {
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	return &Reactor{
		listener:    listener,
		completions: make(chan Completion, queueDepth),
	}
}

// PostAccept re-arms accept slot, publishing an OpAccept completion once
// a connection lands (or the listener is closed). spec.md §4.7: "its
// slot_index is the O(1) key used to re-post that slot after
// consumption."
func (r *Reactor) PostAccept(slot int) {
	go func() {
		conn, err := r.listener.Accept()
		if err != nil {
			r.completions <- Completion{Kind: OpAccept, Slot: slot, Err: err}
			return
		}

		_ = socket.TuneConn(conn)

		remoteIP := remoteIPv4(conn.RemoteAddr())

		pre := make([]byte, preReadCap)
		_ = conn.SetReadDeadline(time.Now().Add(preReadWindow))
		n, _ := conn.Read(pre)
		_ = conn.SetReadDeadline(time.Time{})

		r.completions <- Completion{
			Kind:     OpAccept,
			Slot:     slot,
			Socket:   conn,
			PreRead:  pre[:n],
			RemoteIP: remoteIP,
		}
	}()
}

// PostRecv queues a read into c.RecvBuf[c.RecvOffset:].
func (r *Reactor) PostRecv(c *connpool.Conn) {
	go func() {
		n, err := c.Socket.Read(c.RecvBuf[c.RecvOffset:])
		r.completions <- Completion{Kind: OpRecv, Conn: c, Bytes: n, Err: err}
	}()
}

// PostSend queues a write of data, retrying short writes internally so
// the completion always reports either the full length or a terminal
// error. The connection state machine has no partial-send re-post
// branch and relies on this: a short net.Conn.Write with a nil error
// does not happen for stream sockets, so the loop only repeats on
// platforms that do report partial writes.
func (r *Reactor) PostSend(c *connpool.Conn, data []byte) {
	go func() {
		total := 0
		var err error
		for total < len(data) {
			var n int
			n, err = c.Socket.Write(data[total:])
			total += n
			if err != nil {
				break
			}
		}
		r.completions <- Completion{Kind: OpSend, Conn: c, Bytes: total, Err: err}
	}()
}

// PostTransmitFile queues a single logical header+body transmission:
// send headers, then a zero-copy sendfile of [offset, offset+length).
// spec.md §4.7 requires the two legs to resolve as one completion.
func (r *Reactor) PostTransmitFile(c *connpool.Conn, headers []byte, file *os.File, offset, length int64) {
	go func() {
		total := 0
		var err error
		for total < len(headers) {
			var n int
			n, err = c.Socket.Write(headers[total:])
			total += n
			if err != nil {
				r.completions <- Completion{Kind: OpTransmitFile, Conn: c, Bytes: total, Err: err}
				return
			}
		}

		written, ferr := socket.SendFile(c.Socket, file, offset, length)
		r.completions <- Completion{
			Kind:  OpTransmitFile,
			Conn:  c,
			Bytes: total + int(written),
			Err:   ferr,
		}
	}()
}

// PostDisconnect tears down c's socket. Re-entrant: calling it on an
// already-closed socket reports the closed-connection error that Close
// returns in that case.
func (r *Reactor) PostDisconnect(c *connpool.Conn) {
	go func() {
		var err error
		if c.Socket != nil {
			err = c.Socket.Close()
		}
		r.completions <- Completion{Kind: OpDisconnect, Conn: c, Err: err}
	}()
}

// Shutdown posts n sentinel completions so every worker's get_completion
// loop wakes and exits on receiving one, per spec.md §5 "N sentinel
// completions (post(0,0,NULL)) are posted so every worker wakes."
func (r *Reactor) Shutdown(n int) {
	for i := 0; i < n; i++ {
		r.completions <- Completion{Kind: OpShutdown}
	}
}

// GetCompletion blocks up to timeout for the next completion.
func (r *Reactor) GetCompletion(timeout time.Duration) (Completion, bool) {
	select {
	case c := <-r.completions:
		return c, true
	case <-time.After(timeout):
		return Completion{}, false
	}
}

func remoteIPv4(addr net.Addr) uint32 {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return 0
	}
	ip4 := tcpAddr.IP.To4()
	if ip4 == nil {
		return 0
	}
	return uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
}
