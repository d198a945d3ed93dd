// Package socket applies the TCP options spec.md §4.7 requires: SO_REUSEADDR
// on the listener and TCP_NODELAY on every accepted socket. It also carries
// the platform sendfile(2) wrapper used by the response builder's
// post_transmit_file path.
package socket

import (
	"net"

	"golang.org/x/sys/unix"
)

// TuneListener sets SO_REUSEADDR on the listening socket, matching the
// teacher's pkg/shockwave/socket's ApplyListener but narrowed to the one
// option §4.7 actually asks for (the teacher's TCP_DEFER_ACCEPT/TCP_FASTOPEN
// extras are dropped; see DESIGN.md).
func TuneListener(l net.Listener) error {
	tl, ok := l.(*net.TCPListener)
	if !ok {
		return nil
	}
	raw, err := tl.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	err = raw.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}

// TuneConn disables Nagle's algorithm on an accepted connection.
func TuneConn(conn net.Conn) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return tc.SetNoDelay(true)
}
