package server

import (
	"bufio"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/ignition/internal/ignition/config"
	"github.com/yourusername/ignition/internal/ignition/logging"
)

func TestServerServesAFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi there"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.WebRoot = dir
	cfg.Workers = 2
	cfg.ConnPoolCapacity = 8

	s := New(cfg, logging.New(io.Discard))

	// ListenAndServe binds synchronously on a fixed port in production,
	// but tests need the ephemeral port it picks; run it in a goroutine
	// and poll until the listener field is populated.
	go func() {
		_ = s.ListenAndServe()
	}()

	var addr net.Addr
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.listener != nil {
			addr = s.listener.Addr()
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if addr == nil {
		t.Fatal("server never started listening")
	}

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /hello.txt HTTP/1.1\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(statusLine, "200") {
		t.Fatalf("status line = %q, want 200", statusLine)
	}

	s.Shutdown()
}
