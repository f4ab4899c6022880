package datagram

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/fleetfw/backend/internal/aead"
	"github.com/fleetfw/backend/internal/dispatcher"
	"github.com/fleetfw/backend/internal/envelope"
	"github.com/fleetfw/backend/internal/pkg/goroutine"
)

// fakeAddr is a minimal net.Addr for the in-memory test transport.
type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

// fakeConn is a minimal net.PacketConn: one inbound queue the test feeds,
// one outbound queue the test drains, enough to exercise Service.handle
// without a real socket.
type fakeConn struct {
	mu      sync.Mutex
	inbox   [][]byte
	outbox  chan []byte
	closed  bool
	readErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{outbox: make(chan []byte, 4)}
}

func (f *fakeConn) push(msg []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, msg)
}

func (f *fakeConn) ReadFrom(p []byte) (int, net.Addr, error) {
	for {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return 0, nil, net.ErrClosed
		}
		if len(f.inbox) > 0 {
			msg := f.inbox[0]
			f.inbox = f.inbox[1:]
			f.mu.Unlock()
			n := copy(p, msg)
			return n, fakeAddr("test-client"), nil
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeConn) WriteTo(p []byte, _ net.Addr) (int, error) {
	cp := append([]byte(nil), p...)
	f.outbox <- cp
	return len(p), nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) LocalAddr() net.Addr              { return fakeAddr("test-server") }
func (f *fakeConn) SetDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

type fakeResolver struct{ key []byte }

func (r fakeResolver) ResolveKey(_ context.Context, _ uint32, _ aead.AlgID) ([]byte, error) {
	cp := make([]byte, len(r.key))
	copy(cp, r.key)
	return cp, nil
}

func TestHandleUnknownOpcodeRespondsWithError(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	msg, err := envelope.Encode(aead.AlgAESGCM128, key, 7, 999, []byte{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	conn := newFakeConn()
	svc := New(conn, fakeResolver{key: key}, dispatcher.New(nil, nil), goroutine.NewManager(4))

	svc.handle(context.Background(), fakeAddr("test-client"), msg)

	select {
	case resp := <-conn.outbox:
		decoded, err := envelope.Decode(context.Background(), fakeResolver{key: key}, resp)
		if err != nil {
			t.Fatalf("Decode response: %v", err)
		}
		if decoded.Opcode != uint16(dispatcher.OpError) {
			t.Fatalf("response opcode = %d, want OpError", decoded.Opcode)
		}
		code, err := dispatcher.DecodeErrorCode(decoded.Plaintext)
		if err != nil {
			t.Fatalf("DecodeErrorCode: %v", err)
		}
		if code != dispatcher.InvalidOperation {
			t.Fatalf("error code = %d, want InvalidOperation", code)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response datagram")
	}
}

func TestHandleDropsUndecodableDatagram(t *testing.T) {
	conn := newFakeConn()
	svc := New(conn, fakeResolver{key: bytes.Repeat([]byte{0x22}, 16)}, dispatcher.New(nil, nil), goroutine.NewManager(4))

	svc.handle(context.Background(), fakeAddr("test-client"), []byte("not a valid envelope"))

	select {
	case <-conn.outbox:
		t.Fatal("expected no response for an undecodable datagram")
	case <-time.After(100 * time.Millisecond):
	}
}
