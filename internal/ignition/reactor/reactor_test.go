package reactor

import (
	"net"
	"testing"
	"time"

	"github.com/yourusername/ignition/internal/ignition/connpool"
)

func TestPostAcceptDeliversConnection(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	r := New(l, 8)
	r.PostAccept(0)

	done := make(chan struct{})
	go func() {
		c, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			t.Error(err)
			return
		}
		defer c.Close()
		_, _ = c.Write([]byte("hi"))
		close(done)
	}()

	comp, ok := r.GetCompletion(2 * time.Second)
	if !ok {
		t.Fatal("expected accept completion")
	}
	if comp.Kind != OpAccept {
		t.Fatalf("Kind = %v, want OpAccept", comp.Kind)
	}
	if comp.Err != nil {
		t.Fatalf("unexpected accept error: %v", comp.Err)
	}
	if comp.Socket == nil {
		t.Fatal("expected a socket on accept completion")
	}
	comp.Socket.Close()
	<-done
}

func TestPostRecvAndPostSend(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	r := New(l, 8)
	r.PostAccept(0)

	client, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	accepted, ok := r.GetCompletion(2 * time.Second)
	if !ok || accepted.Err != nil {
		t.Fatalf("accept failed: ok=%v err=%v", ok, accepted.Err)
	}

	pool := connpool.New(1, connpool.DefaultRecvBufSize, connpool.DefaultSendBufSize)
	c, err := pool.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	c.Socket = accepted.Socket

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}

	r.PostRecv(c)
	recvComp, ok := r.GetCompletion(2 * time.Second)
	if !ok {
		t.Fatal("expected recv completion")
	}
	if recvComp.Bytes != 4 {
		t.Fatalf("recv bytes = %d, want 4", recvComp.Bytes)
	}

	r.PostSend(c, []byte("pong"))
	sendComp, ok := r.GetCompletion(2 * time.Second)
	if !ok {
		t.Fatal("expected send completion")
	}
	if sendComp.Bytes != 4 || sendComp.Err != nil {
		t.Fatalf("send completion = %+v", sendComp)
	}

	buf := make([]byte, 4)
	if _, err := client.Read(buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "pong" {
		t.Fatalf("client read %q, want pong", buf)
	}

	r.PostDisconnect(c)
	discComp, ok := r.GetCompletion(2 * time.Second)
	if !ok || discComp.Kind != OpDisconnect {
		t.Fatalf("expected disconnect completion, got %+v ok=%v", discComp, ok)
	}
}

func TestGetCompletionTimesOut(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	r := New(l, 1)
	if _, ok := r.GetCompletion(20 * time.Millisecond); ok {
		t.Fatal("expected timeout with no pending completions")
	}
}

func TestShutdownPostsSentinels(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	r := New(l, 8)
	r.Shutdown(3)

	for i := 0; i < 3; i++ {
		c, ok := r.GetCompletion(time.Second)
		if !ok || c.Kind != OpShutdown {
			t.Fatalf("sentinel %d: ok=%v kind=%v", i, ok, c.Kind)
		}
	}
}

func TestRemoteIPv4Extraction(t *testing.T) {
	addr := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1234}
	got := remoteIPv4(addr)
	want := uint32(10)<<24 | uint32(0)<<16 | uint32(0)<<8 | uint32(1)
	if got != want {
		t.Fatalf("remoteIPv4 = %x, want %x", got, want)
	}
}
