//go:build !linux

package socket

import (
	"io"
	"net"
	"os"
)

// SendFile falls back to io.Copy on platforms without a wired sendfile(2).
func SendFile(conn net.Conn, file *os.File, offset, count int64) (int64, error) {
	return io.Copy(conn, io.NewSectionReader(file, offset, count))
}
