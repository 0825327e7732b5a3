package transport

import (
	"crypto/tls"
	"testing"
	"time"
)

func newTestServerConn(t *testing.T, maxData uint64) *Conn {
	t.Helper()
	config := NewConfig()
	config.Params.InitialMaxData = maxData
	config.TLS = &tls.Config{}
	c, err := Accept([]byte{1, 2, 3, 4}, []byte{5, 6, 7, 8}, config)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return c
}

// B4: a STREAM frame carrying more unacknowledged bytes than the
// connection-level flow control limit allows must be rejected.
func TestRecvFrameStreamFlowControlViolation(t *testing.T) {
	c := newTestServerConn(t, 4)
	f := newStreamFrame(0, []byte("this payload is over the limit"), 0, false)
	b := make([]byte, f.encodedLen())
	if _, err := f.encode(b); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err := c.recvFrameStream(b, time.Now())
	if err != errFlowControl {
		t.Fatalf("recvFrameStream: err = %v, want errFlowControl", err)
	}
}

func TestRecvFrameStreamWithinFlowControl(t *testing.T) {
	c := newTestServerConn(t, 1<<20)
	data := []byte("within limit")
	f := newStreamFrame(0, data, 0, false)
	b := make([]byte, f.encodedLen())
	if _, err := f.encode(b); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := c.recvFrameStream(b, time.Now()); err != nil {
		t.Fatalf("recvFrameStream: %v", err)
	}
	st := c.streams.get(0)
	if st == nil {
		t.Fatal("stream 0 not created")
	}
	got := make([]byte, len(data))
	n, err := st.Read(got)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:n]) != string(data) {
		t.Fatalf("Read = %q, want %q", got[:n], data)
	}
}

// B4: RESET_STREAM that discards buffered-but-undelivered bytes already
// charged against the connection-level flow control budget must be
// rejected once that accounting would exceed the limit again.
func TestRecvFrameResetStreamFlowControlViolation(t *testing.T) {
	c := newTestServerConn(t, 5)
	data := []byte("hello") // exactly the connection's flow budget
	sf := newStreamFrame(0, data, 0, false)
	sb := make([]byte, sf.encodedLen())
	if _, err := sf.encode(sb); err != nil {
		t.Fatalf("encode stream frame: %v", err)
	}
	if _, err := c.recvFrameStream(sb, time.Now()); err != nil {
		t.Fatalf("recvFrameStream: %v", err)
	}
	rf := newResetStreamFrame(0, 0, uint64(len(data)))
	rb := make([]byte, rf.encodedLen())
	if _, err := rf.encode(rb); err != nil {
		t.Fatalf("encode reset frame: %v", err)
	}
	_, err := c.recvFrameResetStream(rb, time.Now())
	if err != errFlowControl {
		t.Fatalf("recvFrameResetStream: err = %v, want errFlowControl", err)
	}
}
