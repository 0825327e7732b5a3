package transport

import "time"

const (
	packetThreshold  = 3
	timeThresholdNum = 9
	timeThresholdDen = 8
	granularity      = time.Millisecond
	initialRTT       = 333 * time.Millisecond
)

type sentPacket struct {
	packetNumber uint64
	frames       []frame
	size         uint64
	ackEliciting bool
	inFlight     bool
	timeSent     time.Time
}

// lossRecovery implements the detection half of RFC 9002: per-space
// sent-packet tracking, RTT estimation, the packet- and time-threshold
// loss rules and the probe timeout. Congestion response (how much may be
// sent) lives in the congestion controller, driven from here.
type lossRecovery struct {
	sent [packetSpaceCount]map[uint64]*sentPacket

	largestAcked [packetSpaceCount]int64 // -1 until an ack is received

	minRTT      time.Duration
	latestRTT   time.Duration
	smoothedRTT time.Duration
	rttVar      time.Duration
	maxAckDelay time.Duration

	ptoCount int
	probes   int // number of PTO probe packets still owed

	lossDetectionTimer time.Time
	lastSentTime        time.Time

	lost   [packetSpaceCount][]frame
	acked  [packetSpaceCount][]frame

	cc    congestionController
	pacer pacer
}

// init prepares the recovery state for a fresh connection, selecting the
// congestion controller named by algo (spec §4.8: pluggable controllers
// sharing one canSend/window contract).
func (r *lossRecovery) init(now time.Time, algo CongestionAlgorithm) {
	for i := range r.sent {
		r.sent[i] = make(map[uint64]*sentPacket)
		r.largestAcked[i] = -1
	}
	r.smoothedRTT = initialRTT
	r.rttVar = initialRTT / 2
	r.maxAckDelay = 25 * time.Millisecond
	switch algo {
	case CongestionCubic:
		r.cc = newCubicCongestion()
	default:
		r.cc = newNewRenoCongestion()
	}
	r.lastSentTime = now
}

// bytesInFlight sums the size of every still-unacknowledged, in-flight sent
// packet across all packet number spaces.
func (r *lossRecovery) bytesInFlight() uint64 {
	var total uint64
	for _, m := range r.sent {
		for _, sp := range m {
			if sp.inFlight {
				total += sp.size
			}
		}
	}
	return total
}

// canSend reports whether n more bytes may be sent right now, combining the
// congestion window (RFC 9002 §7) and the pacer's rate limit (§7.7). Callers
// exempt ACK-only and close packets from this check themselves.
func (r *lossRecovery) canSend(n int, now time.Time) bool {
	if !r.cc.canSend(r.bytesInFlight()) {
		return false
	}
	return r.pacer.canSend(n, now)
}

func (r *lossRecovery) onPacketSent(op *outgoingPacket, space packetSpace) {
	sp := &sentPacket{
		packetNumber: op.packetNumber,
		frames:       op.frames,
		size:         op.size,
		ackEliciting: op.ackEliciting,
		inFlight:     op.inFlight,
		timeSent:     op.timeSent,
	}
	r.sent[space][op.packetNumber] = sp
	r.lastSentTime = op.timeSent
	if sp.inFlight {
		r.cc.onSent(op.size, op.timeSent)
		r.pacer.spend(int(op.size))
		r.setLossDetectionTimer(op.timeSent)
	}
}

// onAckReceived processes a newly received ACK frame's range set: marks
// matching sent packets as acked, updates the RTT estimate from the
// largest newly-acked packet, and runs loss detection for the rest.
func (r *lossRecovery) onAckReceived(ranges *rangeSet, ackDelay time.Duration, space packetSpace, now time.Time) {
	largest, ok := ranges.largest()
	if !ok {
		return
	}
	if int64(largest) > r.largestAcked[space] {
		r.largestAcked[space] = int64(largest)
	}
	var newlyAckedLargest *sentPacket
	for _, rg := range ranges.ranges {
		for pn := rg.start; pn <= rg.end; pn++ {
			sp, ok := r.sent[space][pn]
			if !ok {
				continue
			}
			delete(r.sent[space], pn)
			if sp.inFlight {
				r.cc.onAcked(sp.size, now)
			}
			r.acked[space] = append(r.acked[space], sp.frames...)
			if newlyAckedLargest == nil || sp.packetNumber > newlyAckedLargest.packetNumber {
				newlyAckedLargest = sp
			}
		}
	}
	if newlyAckedLargest != nil && uint64(newlyAckedLargest.packetNumber) == largest && newlyAckedLargest.ackEliciting {
		r.updateRTT(now.Sub(newlyAckedLargest.timeSent), ackDelay)
	}
	r.pacer.update(r.cc.window(), r.smoothedRTT, now)
	r.detectLostPackets(space, now)
	r.ptoCount = 0
	r.setLossDetectionTimer(now)
}

func (r *lossRecovery) updateRTT(sample, ackDelay time.Duration) {
	r.latestRTT = sample
	if r.minRTT == 0 || sample < r.minRTT {
		r.minRTT = sample
	}
	adjusted := sample
	if adjusted > r.minRTT && ackDelay < r.maxAckDelay {
		if adjusted-ackDelay > r.minRTT {
			adjusted -= ackDelay
		}
	}
	if r.smoothedRTT == 0 {
		r.smoothedRTT = adjusted
		r.rttVar = adjusted / 2
		return
	}
	diff := r.smoothedRTT - adjusted
	if diff < 0 {
		diff = -diff
	}
	r.rttVar = (3*r.rttVar + diff) / 4
	r.smoothedRTT = (7*r.smoothedRTT + adjusted) / 8
}

// detectLostPackets applies the packet- and time-threshold rules (RFC
// 9002 §6.1) to every still-in-flight packet below the largest acked.
func (r *lossRecovery) detectLostPackets(space packetSpace, now time.Time) {
	lossDelay := time.Duration(timeThresholdNum) * maxDuration(r.latestRTT, r.smoothedRTT) / timeThresholdDen
	if lossDelay < granularity {
		lossDelay = granularity
	}
	lost := now.Add(-lossDelay)
	largest := r.largestAcked[space]
	for pn, sp := range r.sent[space] {
		if int64(pn) > largest {
			continue
		}
		if largest-int64(pn) >= packetThreshold || sp.timeSent.Before(lost) || sp.timeSent.Equal(lost) {
			delete(r.sent[space], pn)
			if sp.inFlight {
				r.cc.onLost(sp.size, now)
			}
			r.lost[space] = append(r.lost[space], sp.frames...)
		}
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// drainAcked hands every frame carried by a newly-acked packet in space to
// fn, then clears the buffer.
func (r *lossRecovery) drainAcked(space packetSpace, fn func(frame)) {
	for _, f := range r.acked[space] {
		fn(f)
	}
	r.acked[space] = r.acked[space][:0]
}

// drainLost hands every frame carried by a newly-lost packet in space to
// fn, then clears the buffer.
func (r *lossRecovery) drainLost(space packetSpace, fn func(frame)) {
	for _, f := range r.lost[space] {
		fn(f)
	}
	r.lost[space] = r.lost[space][:0]
}

// dropUnackedData discards every in-flight record for space without
// generating loss or ack callbacks (used when a packet number space is
// abandoned: Retry, Version Negotiation, or key discard).
func (r *lossRecovery) dropUnackedData(space packetSpace) {
	r.sent[space] = make(map[uint64]*sentPacket)
	r.lost[space] = nil
	r.acked[space] = nil
	r.largestAcked[space] = -1
}

// probeTimeout returns the current PTO duration (RFC 9002 §6.2.1).
func (r *lossRecovery) probeTimeout() time.Duration {
	pto := r.smoothedRTT + maxDuration(4*r.rttVar, granularity) + r.maxAckDelay
	return pto
}

func (r *lossRecovery) setLossDetectionTimer(now time.Time) {
	hasInFlight := false
	for _, m := range r.sent {
		for _, sp := range m {
			if sp.inFlight {
				hasInFlight = true
				break
			}
		}
	}
	if !hasInFlight {
		r.lossDetectionTimer = time.Time{}
		return
	}
	timeout := r.probeTimeout() * (1 << uint(r.ptoCount))
	r.lossDetectionTimer = r.lastSentTime.Add(timeout)
}

// onLossDetectionTimeout fires a PTO: schedule probe packets to be sent
// on the next send-assembly pass.
func (r *lossRecovery) onLossDetectionTimeout(now time.Time) {
	if r.lossDetectionTimer.IsZero() || now.Before(r.lossDetectionTimer) {
		return
	}
	r.ptoCount++
	r.probes = 2
	r.lossDetectionTimer = time.Time{}
}
