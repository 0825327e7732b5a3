package quic

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync"

	"github.com/goburrow/quic/transport"
)

// endpoint is the shared machinery behind both Client and Server: one UDP
// socket, one I/O thread reading from it, and a fixed pool of workers each
// running their own single-threaded connection loop (spec §9).
type endpoint struct {
	config  *Config
	handler Handler
	logger  logger
	alpn    string

	socket     net.PacketConn
	dispatcher *dispatcher
	workers    []*worker
	workerEvents chan dispatcherEvent

	metrics      *metrics
	sessionCache *FileSessionCache

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

func newEndpoint(config *Config, alpn string) *endpoint {
	if config == nil {
		config = NewConfig()
	}
	n := config.WorkerCount
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	ep := &endpoint{
		config:       config,
		handler:      HandlerFunc(func(Conn, []transport.Event) {}),
		alpn:         alpn,
		workerEvents: make(chan dispatcherEvent, 256),
		closeCh:      make(chan struct{}),
	}
	if config.MetricsEnabled {
		ep.metrics = newMetrics()
	}
	if config.SessionCacheDir != "" {
		if cache, err := NewFileSessionCache(config.SessionCacheDir, 256); err == nil {
			ep.sessionCache = cache
		}
	}
	ep.workers = make([]*worker, n)
	for i := range ep.workers {
		ep.workers[i] = newWorker(i, ep, ep.workerEvents)
	}
	ep.dispatcher = newDispatcher(ep.workers, ep.metrics)
	return ep
}

func (e *endpoint) SetHandler(h Handler) {
	e.handler = h
}

func (e *endpoint) SetLogger(level int, w io.Writer) {
	e.logger.level = logLevel(level)
	e.logger.setWriter(w)
}

func (e *endpoint) transportConfig() *transport.Config {
	var cache tls.ClientSessionCache
	if e.sessionCache != nil {
		cache = e.sessionCache
	}
	return e.config.transportConfig(e.alpn, cache)
}

// installLogging wires a connection's transport.LogEvent callback to
// whichever of the debug logger and the qlog writer are enabled,
// combining both when both are.
func (e *endpoint) installLogging(rc *remoteConn) {
	debug := e.logger.level >= levelDebug && e.logger.writer != nil
	var qw *QlogWriter
	if e.config.QlogDir != "" {
		if w, err := NewQlogWriter(e.config.QlogDir, cidKey(rc.scid)); err == nil {
			qw = w
			rc.qlog = w
		}
	}
	switch {
	case debug && qw != nil:
		tl := transactionLogger{writer: &e.logger, prefix: fmt.Sprintf("addr=%s cid=%x", rc.addr, rc.scid), every: 1}
		if e.logger.level == levelDebug {
			tl.every = 8
		}
		rc.conn.OnLogEvent(func(ev transport.LogEvent) {
			tl.logEvent(ev)
			qw.LogEvent(ev)
		})
	case debug:
		e.logger.attachLogger(rc)
	case qw != nil:
		rc.conn.OnLogEvent(qw.LogEvent)
	}
}

func (e *endpoint) removeLogging(rc *remoteConn) {
	rc.conn.OnLogEvent(nil)
	if rc.qlog != nil {
		rc.qlog.Close()
		rc.qlog = nil
	}
}

// listen opens the UDP socket and starts every worker plus the I/O
// read loop.
func (e *endpoint) listen(addr string) error {
	var socket net.PacketConn
	var err error
	if e.config.ReusePort {
		socket, err = listenPacketReusePort(addr)
	} else {
		socket, err = net.ListenPacket("udp", addr)
	}
	if err != nil {
		return err
	}
	e.socket = socket
	for _, w := range e.workers {
		e.wg.Add(1)
		go func(w *worker) {
			defer e.wg.Done()
			w.run()
		}(w)
	}
	e.wg.Add(1)
	go e.readLoop()
	e.wg.Add(1)
	go e.eventLoop()
	return nil
}

func (e *endpoint) readLoop() {
	defer e.wg.Done()
	buf := make([]byte, 65535)
	for {
		n, addr, err := e.socket.ReadFrom(buf)
		if err != nil {
			select {
			case <-e.closeCh:
				return
			default:
			}
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		dcid, _ := peekConnectionIDs(data)
		w, _ := e.dispatcher.route(dcid)
		if e.metrics != nil {
			e.metrics.packetsReceived.Inc()
		}
		if !w.enqueue(packetTask{data: data, addr: addr}) {
			if e.metrics != nil {
				e.metrics.packetsDropped.Inc()
			}
		}
	}
}

// eventLoop drains worker-published CID events and applies them to the
// dispatcher's table. It is not the table's only writer: route (from
// readLoop) and assign (from Client.Connect) write it too, all under
// dispatcher.mu.
func (e *endpoint) eventLoop() {
	defer e.wg.Done()
	var batch []dispatcherEvent
	for {
		select {
		case ev := <-e.workerEvents:
			batch = append(batch[:0], ev)
			draining := true
			for draining {
				select {
				case ev := <-e.workerEvents:
					batch = append(batch, ev)
				default:
					draining = false
				}
			}
			e.dispatcher.drainEvents(batch)
		case <-e.closeCh:
			return
		}
	}
}

func (e *endpoint) close() error {
	e.closeOnce.Do(func() {
		close(e.closeCh)
		if e.socket != nil {
			e.socket.Close()
		}
		for _, w := range e.workers {
			close(w.packets)
		}
	})
	e.wg.Wait()
	return nil
}
