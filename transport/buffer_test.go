package transport

import (
	"io"
	"testing"
)

func TestRecvReassemblerInOrder(t *testing.T) {
	var r recvReassembler
	r.init()
	if err := r.pushRecv([]byte("hello"), 0, false); err != nil {
		t.Fatal(err)
	}
	if err := r.pushRecv([]byte("world"), 5, true); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 16)
	n, err := r.read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "helloworld" {
		t.Fatalf("read = %q", buf[:n])
	}
	if _, err := r.read(buf); err != io.EOF {
		t.Fatalf("read after fin = %v, want io.EOF", err)
	}
}

func TestRecvReassemblerOutOfOrder(t *testing.T) {
	var r recvReassembler
	r.init()
	if err := r.pushRecv([]byte("world"), 5, false); err != nil {
		t.Fatal(err)
	}
	if err := r.pushRecv([]byte("hello"), 0, false); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 16)
	n, _ := r.read(buf)
	if string(buf[:n]) != "helloworld" {
		t.Fatalf("read = %q", buf[:n])
	}
}

// B5: a second FIN at a different end offset than the first is rejected.
func TestRecvReassemblerFinalSizeMismatchOnSecondFin(t *testing.T) {
	var r recvReassembler
	r.init()
	if err := r.pushRecv([]byte("hello"), 0, true); err != nil {
		t.Fatal(err)
	}
	err := r.pushRecv([]byte("hellox"), 0, true)
	code, ok := Code(err)
	if !ok || code != FinalSizeError {
		t.Fatalf("pushRecv second fin: err = %v, want FinalSizeError", err)
	}
}

// B5: data arriving past an already-established final size is rejected.
func TestRecvReassemblerDataBeyondFinalSize(t *testing.T) {
	var r recvReassembler
	r.init()
	if err := r.pushRecv([]byte("hello"), 0, true); err != nil {
		t.Fatal(err)
	}
	err := r.pushRecv([]byte("oops"), 5, false)
	code, ok := Code(err)
	if !ok || code != FinalSizeError {
		t.Fatalf("pushRecv beyond final size: err = %v, want FinalSizeError", err)
	}
}

// B5: RESET_STREAM with a final size conflicting with an already-seen FIN
// is rejected rather than silently overwritten.
func TestRecvReassemblerResetFinalSizeMismatch(t *testing.T) {
	var r recvReassembler
	r.init()
	if err := r.pushRecv([]byte("hello"), 0, true); err != nil {
		t.Fatal(err)
	}
	_, err := r.reset(4)
	code, ok := Code(err)
	if !ok || code != FinalSizeError {
		t.Fatalf("reset: err = %v, want FinalSizeError", err)
	}
}

func TestRecvReassemblerResetDiscardsBuffered(t *testing.T) {
	var r recvReassembler
	r.init()
	if err := r.pushRecv([]byte("hello"), 0, false); err != nil {
		t.Fatal(err)
	}
	if err := r.pushRecv([]byte("third"), 10, false); err != nil {
		t.Fatal(err)
	}
	discarded, err := r.reset(15)
	if err != nil {
		t.Fatal(err)
	}
	if discarded != 10 {
		t.Fatalf("discarded = %d, want 10", discarded)
	}
	buf := make([]byte, 16)
	if _, err := r.read(buf); err != io.EOF {
		t.Fatalf("read after reset = %v, want io.EOF", err)
	}
}

func TestSendBufferPopAndAck(t *testing.T) {
	var s sendBuffer
	s.init()
	if err := s.write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	s.closeWrite()
	data, offset, fin := s.popSend(3)
	if string(data) != "hel" || offset != 0 || fin {
		t.Fatalf("popSend(3) = %q, %d, %v", data, offset, fin)
	}
	data, offset, fin = s.popSend(10)
	if string(data) != "lo" || offset != 3 || !fin {
		t.Fatalf("popSend(10) = %q, %d, %v", data, offset, fin)
	}
	s.ack(0, 5)
	if !s.complete() {
		t.Fatal("complete() = false after fin acked")
	}
}

func TestSendBufferWriteAfterCloseRejected(t *testing.T) {
	var s sendBuffer
	s.init()
	s.closeWrite()
	if err := s.write([]byte("x")); err == nil {
		t.Fatal("write after close: want error")
	}
}
