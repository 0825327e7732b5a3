package quic

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/quic/transport"
)

type logLevel int

// Log levels
const (
	levelOff logLevel = iota
	levelError
	levelInfo
	levelDebug
	levelTrace
)

// logger logs QUIC transactions. At levelTrace every transport.LogEvent is
// written (packet- and frame-granularity); at levelDebug only a sampled
// fraction of them are, since a busy connection emits far more trace events
// than a human reading the stream can use.
type logger struct {
	level logLevel
	mu    sync.Mutex
	writer io.Writer

	// traceSample is not read anywhere: the levelDebug sampling rate is a
	// fixed 1-in-8 of per-packet events, counted per attached connection so
	// one noisy connection cannot starve the log of another's events.
	traceSample uint32
}

func (s *logger) setWriter(w io.Writer) {
	s.mu.Lock()
	s.writer = w
	s.mu.Unlock()
}

func (s *logger) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return len(b), nil
	}
	return s.writer.Write(b)
}

func (s *logger) log(level logLevel, format string, values ...interface{}) {
	if s.level < level || s.writer == nil {
		return
	}
	b := bytes.Buffer{}
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteString(" ")
	fmt.Fprintf(&b, format, values...)
	b.WriteString("\n")
	s.Write(b.Bytes())
}

// attachLogger wires c's transport event callback to this logger, sampling
// down to 1-in-8 packet-level events when the configured level is exactly
// levelDebug (full volume is reserved for levelTrace).
func (s *logger) attachLogger(c *remoteConn) {
	if s.level < levelDebug || s.writer == nil {
		return
	}
	tl := &transactionLogger{
		writer: s,
		prefix: fmt.Sprintf("addr=%s cid=%x", c.addr, c.scid),
		every:  1,
	}
	if s.level == levelDebug {
		tl.every = 8
	}
	c.conn.OnLogEvent(tl.logEvent)
}

func (s *logger) detachLogger(c *remoteConn) {
	c.conn.OnLogEvent(nil)
}

// transactionLogger formats and emits one connection's transport.LogEvent
// stream, optionally sampling every/1 events to cut trace-level volume.
type transactionLogger struct {
	writer io.Writer
	prefix string
	every  uint32
	seen   uint32
}

func (s *transactionLogger) logEvent(e transport.LogEvent) {
	if s.every > 1 {
		n := atomic.AddUint32(&s.seen, 1)
		if n%s.every != 0 {
			return
		}
	}
	s.writer.Write(formatLogEvent(e, s.prefix))
}

func formatLogEvent(e transport.LogEvent, prefix string) []byte {
	b := bytes.Buffer{}
	b.WriteString(e.Time.Format(time.RFC3339))
	b.WriteString("   ") // extra indentation for transport-level events
	b.WriteString(e.Type)
	if prefix != "" {
		b.WriteString(" ")
		b.WriteString(prefix)
	}
	for _, f := range e.Fields {
		b.WriteString(" ")
		b.WriteString(f.String())
	}
	b.WriteString("\n")
	return b.Bytes()
}
