// Package connstate implements spec.md §4.8's per-connection state
// machine: it consumes reactor.Completion values and drives each
// connection record through Accepting/Reading/Processing/Sending/
// SendingFile/KeepAlive/Closing/Closed.
package connstate

import (
	"fmt"
	"time"

	"github.com/yourusername/ignition/internal/ignition/cache"
	"github.com/yourusername/ignition/internal/ignition/config"
	"github.com/yourusername/ignition/internal/ignition/connpool"
	"github.com/yourusername/ignition/internal/ignition/httpparse"
	"github.com/yourusername/ignition/internal/ignition/logging"
	"github.com/yourusername/ignition/internal/ignition/ratelimit"
	"github.com/yourusername/ignition/internal/ignition/reactor"
	"github.com/yourusername/ignition/internal/ignition/response"
	"github.com/yourusername/ignition/internal/ignition/stats"
)

// Machine drives one worker's share of connections. It owns no
// per-worker state beyond what it needs to dispatch a single
// completion; every connection's actual state lives in its
// *connpool.Conn record, so any worker may handle any connection's next
// completion (spec.md §5: "no ordering is guaranteed" across
// connections).
type Machine struct {
	Pool    *connpool.Pool
	Reactor *reactor.Reactor
	Limiter *ratelimit.Limiter
	Cache   *cache.Cache
	Stats   *stats.Stats
	Log     *logging.Logger

	WebRoot    string
	ServerName string

	RequestReadTimeout   time.Duration
	KeepAliveIdleTimeout time.Duration
	MaxKeepAliveRequests int
}

// New builds a Machine from cfg and its shared subsystems.
func New(cfg config.Config, pool *connpool.Pool, rx *reactor.Reactor, lim *ratelimit.Limiter, c *cache.Cache, st *stats.Stats, log *logging.Logger) *Machine {
	return &Machine{
		Pool:                 pool,
		Reactor:              rx,
		Limiter:              lim,
		Cache:                c,
		Stats:                st,
		Log:                  log,
		WebRoot:              cfg.WebRoot,
		ServerName:           cfg.ServerName,
		RequestReadTimeout:   cfg.RequestReadTimeout,
		KeepAliveIdleTimeout: cfg.KeepAliveIdleTimeout,
		MaxKeepAliveRequests: cfg.MaxKeepAliveRequests,
	}
}

// HandleCompletion dispatches one reactor completion per spec.md §4.8's
// transition table. It returns true when the completion was the
// shutdown sentinel, telling the caller's drain loop to exit.
func (m *Machine) HandleCompletion(c reactor.Completion) bool {
	switch c.Kind {
	case reactor.OpShutdown:
		return true
	case reactor.OpAccept:
		m.handleAccept(c)
	case reactor.OpRecv:
		m.handleRecv(c)
	case reactor.OpSend, reactor.OpTransmitFile:
		m.handleSendCompletion(c)
	case reactor.OpDisconnect:
		m.handleDisconnect(c)
	}
	return false
}

func (m *Machine) handleAccept(c reactor.Completion) {
	if c.Err != nil {
		// Listener closed (shutdown) or a transient accept error; either
		// way there is no slot state to preserve, so just stop here
		// rather than spin re-arming a dead listener.
		return
	}

	if !m.Limiter.Check(c.RemoteIP) {
		_ = c.Socket.Close()
		if m.Stats != nil {
			m.Stats.RateLimitRejects.Add(1)
		}
		if m.Log != nil {
			m.Log.RejectedByLimiter(ipString(c.RemoteIP))
		}
		m.Reactor.PostAccept(c.Slot)
		return
	}
	m.Limiter.Increment(c.RemoteIP)

	conn, err := m.Pool.Acquire()
	if err != nil {
		_ = c.Socket.Close()
		m.Limiter.Decrement(c.RemoteIP)
		if m.Stats != nil {
			m.Stats.ConnectionErrors.Add(1)
		}
		m.Reactor.PostAccept(c.Slot)
		return
	}

	conn.Socket = c.Socket
	conn.ClientIP = c.RemoteIP
	conn.State = connpool.StateAccepting
	conn.Touch()

	n := copy(conn.RecvBuf, c.PreRead)
	conn.RecvOffset = n

	if m.Stats != nil {
		m.Stats.TotalConnections.Add(1)
		m.Stats.ActiveConnections.Add(1)
	}

	m.Reactor.PostAccept(c.Slot)

	m.tryParseOrContinue(conn)
}

// tryParseOrContinue implements the shared "try to parse; if complete,
// Processing; else Reading via post_recv" branch used by both the
// accept and recv transitions.
func (m *Machine) tryParseOrContinue(conn *connpool.Conn) {
	buf := conn.RecvBuf[:conn.RecvOffset]

	if httpparse.HeadersComplete(buf) {
		m.process(conn, buf)
		return
	}

	if conn.RecvOffset >= httpparse.MaxRequestSize {
		m.failRequest(conn, errRequestTooLarge)
		return
	}

	conn.State = connpool.StateReading
	conn.RecvPending = true
	m.Reactor.PostRecv(conn)
}

func (m *Machine) handleRecv(c reactor.Completion) {
	conn := c.Conn
	conn.RecvPending = false

	if c.Err != nil || c.Bytes == 0 {
		m.closeConn(conn)
		return
	}

	conn.RecvOffset += c.Bytes

	if m.idleExpired(conn) {
		m.timeoutConn(conn)
		return
	}
	conn.Touch()

	m.tryParseOrContinue(conn)
}

// process parses buf and transitions to Processing, then Sending or
// SendingFile per spec.md §4.9.
func (m *Machine) process(conn *connpool.Conn, buf []byte) {
	conn.State = connpool.StateProcessing

	req := httpparse.GetRequest()
	if err := httpparse.Parse(buf, req); err != nil {
		httpparse.PutRequest(req)
		m.failRequest(conn, err)
		return
	}
	conn.Request = req

	if m.Stats != nil {
		m.Stats.TotalRequests.Add(1)
	}

	out := response.Build(req, m.WebRoot, m.Cache, m.Stats, m.ServerName)
	conn.KeepAlive = out.KeepAlive && conn.RequestsServed+1 < m.MaxKeepAliveRequests

	if out.File != nil {
		conn.File = out.File
		conn.FileSize = out.FileLength
		conn.BytesQueued = len(out.Headers) + int(out.FileLength)
		conn.State = connpool.StateSendingFile
		conn.SendPending = true
		m.Reactor.PostTransmitFile(conn, out.Headers, out.File, out.FileOffset, out.FileLength)
		return
	}

	conn.State = connpool.StateSending
	payload := append(append([]byte(nil), out.Headers...), out.Body...)
	conn.BytesQueued = len(payload)
	conn.SendPending = true
	m.Reactor.PostSend(conn, payload)
}

func (m *Machine) handleSendCompletion(c reactor.Completion) {
	conn := c.Conn
	conn.SendPending = false
	conn.BytesSent = c.Bytes

	if m.Stats != nil {
		m.Stats.BytesWritten.Add(uint64(c.Bytes))
	}

	if c.Err != nil {
		m.closeConn(conn)
		return
	}

	// spec.md §4.8 models a partial-send re-post with an advanced
	// buffer pointer; reactor.PostSend already retries internally until
	// the full payload is written or a write errors (net.Conn.Write
	// never returns a short count with a nil error), so by the time a
	// completion reaches here bytes sent always equals bytes queued.

	conn.RequestsServed++

	if conn.KeepAlive && conn.RequestsServed < m.MaxKeepAliveRequests {
		m.resetForKeepAlive(conn)
		return
	}

	m.closeConn(conn)
}

// resetForKeepAlive implements spec.md §4.8's "Connection reset on
// keep-alive": close any file handle, zero the per-request counters,
// keep buffers and socket, and re-arm the receive.
func (m *Machine) resetForKeepAlive(conn *connpool.Conn) {
	if conn.Request != nil {
		httpparse.PutRequest(conn.Request)
		conn.Request = nil
	}
	conn.ResetForKeepAlive()
	conn.State = connpool.StateKeepAlive
	conn.RecvPending = true
	m.Reactor.PostRecv(conn)
}

func (m *Machine) handleDisconnect(c reactor.Completion) {
	conn := c.Conn
	m.releaseConn(conn)
}

// closeConn requests a socket teardown and releases the connection once
// the disconnect completes.
func (m *Machine) closeConn(conn *connpool.Conn) {
	conn.State = connpool.StateClosing
	m.Reactor.PostDisconnect(conn)
}

func (m *Machine) releaseConn(conn *connpool.Conn) {
	if conn.Request != nil {
		httpparse.PutRequest(conn.Request)
		conn.Request = nil
	}
	if conn.ClientIP != 0 {
		m.Limiter.Decrement(conn.ClientIP)
	}
	conn.State = connpool.StateClosed
	m.Pool.Release(conn)
	if m.Stats != nil {
		m.Stats.ActiveConnections.Add(-1)
	}
}

// failRequest sends 400 (malformed) or 414 (URI too long per spec.md §6
// and §8's 2049-byte boundary) and closes, matching spec.md §4.8's
// "if invalid, send 400/408 and Closing".
func (m *Machine) failRequest(conn *connpool.Conn, err error) {
	if m.Log != nil {
		m.Log.ParseError(ipString(conn.ClientIP), err)
	}
	if m.Stats != nil {
		m.Stats.RequestErrors.Add(1)
	}

	status, reason := 400, "Bad Request"
	if err == httpparse.ErrURITooLong {
		status, reason = 414, "URI Too Long"
	}

	body := []byte(fmt.Sprintf("%d %s\n", status, reason))
	headers := []byte(fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nConnection: close\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Length: %d\r\n\r\n",
		status, reason, len(body)))
	conn.State = connpool.StateSending
	payload := append(append([]byte(nil), headers...), body...)
	conn.BytesQueued = len(payload)
	conn.KeepAlive = false
	conn.SendPending = true
	m.Reactor.PostSend(conn, payload)
}

// timeoutConn sends 408 if no request has started yet, else closes
// directly, per spec.md §4.8's timeout transition.
func (m *Machine) timeoutConn(conn *connpool.Conn) {
	if conn.RequestsServed == 0 && conn.Request == nil {
		body := []byte("408 Request Timeout\n")
		headers := []byte("HTTP/1.1 408 Request Timeout\r\nConnection: close\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Length: 20\r\n\r\n")
		conn.State = connpool.StateSending
		payload := append(append([]byte(nil), headers...), body...)
		conn.BytesQueued = len(payload)
		conn.KeepAlive = false
		conn.SendPending = true
		m.Reactor.PostSend(conn, payload)
		return
	}
	m.closeConn(conn)
}

// idleExpired checks the two thresholds spec.md §4.8 names: the
// request-read timeout while no request has completed on this
// connection yet, and the keep-alive idle timeout afterward.
func (m *Machine) idleExpired(conn *connpool.Conn) bool {
	idle := conn.IdleSince()
	if conn.RequestsServed == 0 {
		return idle > m.RequestReadTimeout
	}
	return idle > m.KeepAliveIdleTimeout
}

func ipString(ip uint32) string {
	if ip == 0 {
		return "unknown"
	}
	b := [4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)}
	return itoa(b[0]) + "." + itoa(b[1]) + "." + itoa(b[2]) + "." + itoa(b[3])
}

func itoa(b byte) string {
	if b == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	n := b
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
