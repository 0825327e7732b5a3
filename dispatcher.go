package quic

import (
	"encoding/hex"
	"net"
	"sync"
)

// packetTask is one datagram handed from the dispatcher's I/O thread to a
// worker's queue (spec §9: "PacketTask { datagram, peer_addr, arrival_time }").
type packetTask struct {
	data    []byte
	addr    net.Addr
	arrival int64 // UnixNano; avoids importing time at every call site
}

// dispatcherEvent is published by a worker to the endpoint's event loop,
// which applies it to the CID table through drainEvents. The table is not
// single-writer: route and assign write it as well, and every access takes
// dispatcher.mu.
type dispatcherEvent struct {
	kind   dispatcherEventKind
	cid    string
	worker int
}

type dispatcherEventKind int

const (
	eventAddCID dispatcherEventKind = iota
	eventRemoveCID
)

// dispatcher owns the cid -> worker routing table and the round-robin
// pointer used to assign new connections to workers.
type dispatcher struct {
	mu      sync.Mutex // guards table and next; route, assign and drainEvents all write
	table   map[string]int
	workers []*worker
	next    int
	metrics *metrics
}

func newDispatcher(workers []*worker, m *metrics) *dispatcher {
	return &dispatcher{
		table:   make(map[string]int),
		workers: workers,
		metrics: m,
	}
}

func cidKey(cid []byte) string {
	return hex.EncodeToString(cid)
}

// route looks up the worker owning cid, or assigns the next worker in
// round-robin order if this is an unknown CID (spec §9 item "Miss +
// datagram is a valid client Initial").
func (d *dispatcher) route(cid []byte) (*worker, bool) {
	key := cidKey(cid)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.datagramsRouted.Inc()
	}
	if idx, ok := d.table[key]; ok {
		return d.workers[idx], true
	}
	idx := d.next
	d.next = (d.next + 1) % len(d.workers)
	d.table[key] = idx
	d.reportTableSize()
	return d.workers[idx], false
}

// assign picks the next worker in round-robin order and registers cid for
// it immediately. Used for client-initiated connections, whose local CID
// is chosen before the handshake starts rather than discovered from an
// incoming datagram.
func (d *dispatcher) assign(cid []byte) *worker {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.next
	d.next = (d.next + 1) % len(d.workers)
	d.table[cidKey(cid)] = idx
	d.reportTableSize()
	return d.workers[idx]
}

// drainEvents applies worker-published AddCID/RemoveCID events to the
// table. Called from the endpoint's event loop goroutine, concurrently with
// the read loop's route calls.
func (d *dispatcher) drainEvents(events []dispatcherEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range events {
		switch e.kind {
		case eventAddCID:
			d.table[e.cid] = e.worker
		case eventRemoveCID:
			delete(d.table, e.cid)
		}
	}
	d.reportTableSize()
}

// reportTableSize publishes the current table size to the cid_table_size
// gauge. Called with d.mu held.
func (d *dispatcher) reportTableSize() {
	if d.metrics != nil {
		d.metrics.cidTableSize.Set(float64(len(d.table)))
	}
}
