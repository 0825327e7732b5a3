package transport

import (
	"testing"
	"time"
)

// B3: a packet number already recorded as received must be rejected as a
// duplicate/reused packet number (spec §4.2: "discard packets reusing a
// packet number already processed in the same space").
func TestPacketNumberSpaceRejectsReuse(t *testing.T) {
	var p packetNumberSpace
	p.init()
	now := time.Unix(0, 0)

	if p.isPacketReceived(5) {
		t.Fatal("isPacketReceived(5) = true before any packet seen")
	}
	p.onPacketReceived(5, now)
	if !p.isPacketReceived(5) {
		t.Fatal("isPacketReceived(5) = false after onPacketReceived(5)")
	}
	// A peer resending packet number 5 must be recognized as a reuse.
	if !p.isPacketReceived(5) {
		t.Fatal("duplicate packet number 5 not detected")
	}
	if p.isPacketReceived(6) {
		t.Fatal("isPacketReceived(6) = true before it was seen")
	}
}

func TestPacketNumberSpaceTracksLargest(t *testing.T) {
	var p packetNumberSpace
	p.init()
	t0 := time.Unix(100, 0)
	t1 := time.Unix(200, 0)
	p.onPacketReceived(3, t0)
	p.onPacketReceived(7, t1)
	if p.largestRecvPN != 7 {
		t.Fatalf("largestRecvPN = %d, want 7", p.largestRecvPN)
	}
	if !p.largestRecvPacketTime.Equal(t1) {
		t.Fatalf("largestRecvPacketTime = %v, want %v", p.largestRecvPacketTime, t1)
	}
	// An out-of-order arrival with a lower packet number must not move
	// largestRecvPN backwards.
	p.onPacketReceived(4, time.Unix(300, 0))
	if p.largestRecvPN != 7 {
		t.Fatalf("largestRecvPN = %d after lower pn arrived, want 7", p.largestRecvPN)
	}
}

func TestRangeSetMergesAdjacent(t *testing.T) {
	var s rangeSet
	s.push(5)
	s.push(6)
	s.push(4)
	if len(s.ranges) != 1 {
		t.Fatalf("ranges = %v, want a single merged range", s.ranges)
	}
	if s.ranges[0] != (pnRange{start: 4, end: 6}) {
		t.Fatalf("ranges[0] = %v, want {4 6}", s.ranges[0])
	}
	if !s.contains(5) {
		t.Fatal("contains(5) = false")
	}
	if s.contains(10) {
		t.Fatal("contains(10) = true")
	}
}

func TestRangeSetRemoveUntil(t *testing.T) {
	var s rangeSet
	for _, pn := range []uint64{1, 2, 3, 10, 11} {
		s.push(pn)
	}
	s.removeUntil(2)
	if s.contains(1) || s.contains(2) {
		t.Fatal("removeUntil(2) left packet numbers <= 2")
	}
	if !s.contains(3) || !s.contains(10) {
		t.Fatal("removeUntil(2) dropped packet numbers above the cutoff")
	}
}
