package quic

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/goburrow/quic/transport"
)

// qlogRecord is one newline-delimited JSON record, shaped after
// draft-ietf-qlog-quic-events: a timestamp, a qlog event name, and a flat
// bag of named fields (reusing transport.LogEvent's own field set rather
// than the draft's nested category/data structure).
type qlogRecord struct {
	Time   string            `json:"time"`
	Name   string            `json:"name"`
	Fields map[string]string `json:"data,omitempty"`
}

// QlogWriter decouples qlog production from disk I/O: connections publish
// LogEvents into a buffered channel, and a single goroutine per writer
// serializes and flushes them, so a slow disk never stalls a worker's
// connection loop.
type QlogWriter struct {
	events chan qlogRecord
	done   chan struct{}

	closeOnce sync.Once
}

const qlogBufferSize = 1024

// NewQlogWriter creates the directory dir (if needed) and starts writing
// <name>.qlog.ndjson under it in the background.
func NewQlogWriter(dir, name string) (*QlogWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, name+".qlog.ndjson"))
	if err != nil {
		return nil, err
	}
	w := &QlogWriter{
		events: make(chan qlogRecord, qlogBufferSize),
		done:   make(chan struct{}),
	}
	go w.run(f)
	return w, nil
}

func (w *QlogWriter) run(f *os.File) {
	defer f.Close()
	defer close(w.done)
	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for r := range w.events {
		enc.Encode(r) // best-effort: a write error here cannot be reported to the connection that produced it
	}
	bw.Flush()
}

// LogEvent implements the callback shape transport.Conn.OnLogEvent
// expects, converting a LogEvent into a qlog record. Events are dropped
// (not blocked on) if the writer's buffer is full, matching the tracer's
// usual best-effort contract.
func (w *QlogWriter) LogEvent(e transport.LogEvent) {
	fields := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if f.Str != "" {
			fields[f.Key] = f.Str
		} else {
			fields[f.Key] = strconv.FormatUint(f.Num, 10)
		}
	}
	r := qlogRecord{
		Time:   e.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Name:   e.Type,
		Fields: fields,
	}
	select {
	case w.events <- r:
	default:
	}
}

// Close stops accepting events and waits for the buffered ones to flush.
func (w *QlogWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.events)
	})
	<-w.done
	return nil
}
