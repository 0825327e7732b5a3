package quic

import (
	crand "crypto/rand"
	"net"
	"time"

	"github.com/goburrow/quic/transport"
	"github.com/rs/xid"
)

// cryptoRandRead fills b with crypto/rand bytes, used whenever this package
// generates a connection ID on its own behalf (transport.Conn generates its
// own peer-visible CIDs internally; this is only for the scid a Client or a
// newly accepted server connection hands to transport.Connect/Accept).
func cryptoRandRead(b []byte) (int, error) {
	return crand.Read(b)
}

// worker runs exactly one single-threaded connection event loop (spec
// §9). Every Conn it owns is pinned to it for the connection's lifetime;
// application callbacks for those connections only ever run here, so
// stream reads/writes issued from Handler.Serve need no synchronization.
type worker struct {
	id  int
	tag string // opaque id (rs/xid) labeling this worker's metrics and log lines
	ep  *endpoint

	packets  chan packetTask
	register chan *remoteConn
	events   chan<- dispatcherEvent

	conns map[string]*remoteConn

	recvBuf []byte
	eventsBuf []transport.Event
}

const workerPacketQueueSize = 1024

func newWorker(id int, ep *endpoint, events chan<- dispatcherEvent) *worker {
	return &worker{
		id:       id,
		tag:      xid.New().String(),
		ep:       ep,
		packets:  make(chan packetTask, workerPacketQueueSize),
		register: make(chan *remoteConn, 1),
		events:   events,
		conns:    make(map[string]*remoteConn),
		recvBuf:  make([]byte, 65535),
	}
}

// enqueue delivers a datagram to this worker's packet queue. Called from
// the dispatcher's I/O thread; never blocks indefinitely since the queue
// is sized generously and a full queue means the worker is falling
// behind, in which case dropping the datagram (UDP tolerates loss) beats
// stalling the I/O thread.
func (w *worker) enqueue(task packetTask) bool {
	select {
	case w.packets <- task:
		return true
	default:
		return false
	}
}

// run is the worker's single-threaded loop: wait for the next packet or
// the nearest connection timeout, whichever comes first, process it, then
// flush any pending sends (spec §9's "loop { wait; timer.run; dispatch;
// drain_packet_queue; send-ready connections }").
func (w *worker) run() {
	for {
		timeout := w.minTimeout()
		var timer *time.Timer
		var timerC <-chan time.Time
		if timeout >= 0 {
			timer = time.NewTimer(timeout)
			timerC = timer.C
		}
		select {
		case task, ok := <-w.packets:
			if !ok {
				stopTimer(timer)
				return
			}
			w.handlePacket(task)
			w.drainQueuedPackets()
		case rc := <-w.register:
			w.registerConn(rc)
		case <-timerC:
			w.checkTimeouts()
		}
		stopTimer(timer)
		w.flushSends()
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// drainQueuedPackets processes any additional datagrams already queued,
// bounding the burst so timers still get a chance to run.
func (w *worker) drainQueuedPackets() {
	for i := 0; i < 64; i++ {
		select {
		case task := <-w.packets:
			w.handlePacket(task)
		default:
			return
		}
	}
}

func (w *worker) handlePacket(task packetTask) {
	// The wire's destination CID is the endpoint's own identifier for
	// this connection: our locally-issued scid, once the handshake is
	// under way.
	dcid, _ := peekConnectionIDs(task.data)
	key := cidKey(dcid)
	rc, ok := w.conns[key]
	if !ok {
		var err error
		rc, err = w.acceptConn(task)
		if err != nil {
			return
		}
		w.conns[cidKey(rc.scid)] = rc
		w.events <- dispatcherEvent{kind: eventAddCID, cid: cidKey(rc.scid), worker: w.id}
		if w.ep.metrics != nil {
			w.ep.metrics.connectionsPerWorker.WithLabelValues(w.tag).Inc()
		}
	}
	rc.addr = task.addr
	if _, err := rc.conn.Write(task.data); err != nil {
		w.closeConn(key, rc)
		return
	}
	w.notifyHandler(rc)
	w.flushOne(rc)
}

// acceptConn builds a new server connection for a previously unseen CID.
// On the client side, connections are created explicitly by Dial, not
// here, so this path is server-only.
func (w *worker) acceptConn(task packetTask) (*remoteConn, error) {
	scid := make([]byte, transport.MaxCIDLength)
	if _, err := cryptoRandRead(scid); err != nil {
		return nil, err
	}
	dcid, _ := peekConnectionIDs(task.data)
	conn, err := transport.Accept(scid, dcid, w.ep.transportConfig())
	if err != nil {
		return nil, err
	}
	rc := newRemoteConn(scid, task.addr, conn)
	w.ep.installLogging(rc)
	return rc, nil
}

// registerConn adopts a connection created by Client.Connect. Unlike
// acceptConn, the scid was already chosen (and told to the dispatcher)
// before the handshake started, so the first flight can go out as soon as
// this worker takes ownership.
func (w *worker) registerConn(rc *remoteConn) {
	w.ep.installLogging(rc)
	w.conns[cidKey(rc.scid)] = rc
	if w.ep.metrics != nil {
		w.ep.metrics.connectionsPerWorker.WithLabelValues(w.tag).Inc()
	}
	w.flushOne(rc)
}

func (w *worker) notifyHandler(rc *remoteConn) {
	w.eventsBuf = rc.conn.Events(w.eventsBuf[:0])
	if rc.conn.IsEstablished() && !rc.announced {
		rc.announced = true
		w.eventsBuf = append(w.eventsBuf, transport.Event{Type: EventConnAccept})
	}
	if len(w.eventsBuf) > 0 {
		w.ep.handler.Serve(connHandle{rc: rc}, w.eventsBuf)
	}
	if rc.conn.IsClosed() {
		w.closeConn(cidKey(rc.scid), rc)
	}
}

func (w *worker) closeConn(key string, rc *remoteConn) {
	if rc.closing {
		return
	}
	rc.closing = true
	w.ep.removeLogging(rc)
	w.ep.handler.Serve(connHandle{rc: rc}, []transport.Event{{Type: EventConnClose}})
	delete(w.conns, key)
	w.events <- dispatcherEvent{kind: eventRemoveCID, cid: key, worker: w.id}
	if w.ep.metrics != nil {
		w.ep.metrics.connectionsPerWorker.WithLabelValues(w.tag).Dec()
	}
}

func (w *worker) flushOne(rc *remoteConn) {
	for {
		n, err := rc.conn.Read(w.recvBuf)
		if err != nil || n == 0 {
			return
		}
		w.ep.socket.WriteTo(w.recvBuf[:n], rc.addr)
		if n < len(w.recvBuf) {
			return
		}
	}
}

func (w *worker) flushSends() {
	for key, rc := range w.conns {
		w.flushOne(rc)
		if rc.conn.IsClosed() {
			w.closeConn(key, rc)
		}
	}
}

func (w *worker) minTimeout() time.Duration {
	min := time.Duration(-1)
	for _, rc := range w.conns {
		d := rc.conn.Timeout()
		if d < 0 {
			continue
		}
		if min < 0 || d < min {
			min = d
		}
	}
	return min
}

func (w *worker) checkTimeouts() {
	for key, rc := range w.conns {
		if rc.conn.Timeout() == 0 {
			w.flushOne(rc)
			if rc.conn.IsClosed() {
				w.closeConn(key, rc)
			}
		}
	}
}

// peekConnectionIDs extracts the destination and source connection IDs
// from a datagram without fully parsing it, enough for CID-based routing
// (spec §9: "parses the DCID; long header: explicit dcid_len; short
// header: fixed local-CID length").
func peekConnectionIDs(b []byte) (dcid, scid []byte) {
	if len(b) < 1 {
		return nil, nil
	}
	if b[0]&0x80 != 0 {
		// Long header: version(4) dcil(1) dcid scil(1) scid ...
		if len(b) < 6 {
			return nil, nil
		}
		dcil := int(b[5])
		pos := 6
		if len(b) < pos+dcil+1 {
			return nil, nil
		}
		dcid = b[pos : pos+dcil]
		pos += dcil
		scil := int(b[pos])
		pos++
		if len(b) < pos+scil {
			return dcid, nil
		}
		scid = b[pos : pos+scil]
		return dcid, scid
	}
	// Short header: fixed-length local CID immediately follows the first
	// byte; the local CID length is not self-describing on the wire, so
	// the endpoint's configured length is assumed here.
	if len(b) < 1+transport.CIDLen {
		return nil, nil
	}
	return b[1 : 1+transport.CIDLen], nil
}

var _ net.Addr = (net.Addr)(nil)
