//go:build linux

package socket

import (
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// SendFile implements §4.7's post_transmit_file body leg with the
// sendfile(2) syscall: a zero-copy kernel-to-kernel transfer from file to
// socket. Falls back to io.Copy if the connection isn't a raw TCP socket or
// the syscall itself fails outright.
func SendFile(conn net.Conn, file *os.File, offset, count int64) (int64, error) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}

	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}

	srcFd := int(file.Fd())
	var written int64
	var sendErr error

	ctrlErr := raw.Write(func(dstFd uintptr) bool {
		cur := offset
		remaining := count
		for remaining > 0 {
			chunk := remaining
			if chunk > 1<<30 {
				chunk = 1 << 30
			}
			n, err := unix.Sendfile(int(dstFd), srcFd, &cur, int(chunk))
			if err != nil {
				if err == unix.EAGAIN || err == unix.EINTR {
					continue
				}
				sendErr = err
				return false
			}
			if n == 0 {
				break
			}
			written += int64(n)
			remaining -= int64(n)
		}
		return true
	})

	if ctrlErr != nil {
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}
	if sendErr != nil {
		if written > 0 {
			rest, err := io.Copy(conn, io.NewSectionReader(file, offset+written, count-written))
			return written + rest, err
		}
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}
	return written, nil
}
