package socket

import (
	"net"
	"testing"
)

func TestTuneListenerAndConn(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	if err := TuneListener(l); err != nil {
		t.Fatalf("TuneListener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if err := TuneConn(conn); err != nil {
			t.Errorf("TuneConn: %v", err)
		}
	}()

	c, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	<-done
}

func TestTuneListenerNonTCPIsNoop(t *testing.T) {
	type fakeListener struct{ net.Listener }
	if err := TuneListener(fakeListener{}); err != nil {
		t.Fatalf("expected nil for non-TCP listener, got %v", err)
	}
}
