package transport

import "time"

// pacer spreads a congestion window's worth of sending across an RTT
// instead of bursting it all at once (spec §4.9), following RFC 9002
// §7.7's suggested pacing rate of roughly cwnd / smoothed_rtt scaled by a
// small headroom factor.
type pacer struct {
	rate       float64 // bytes per second, 0 means unpaced
	budget     float64
	lastUpdate time.Time
}

const pacingGain = 1.25

func (p *pacer) update(cwnd uint64, rtt time.Duration, now time.Time) {
	if rtt <= 0 {
		p.rate = 0
		return
	}
	p.rate = pacingGain * float64(cwnd) / rtt.Seconds()
	if p.lastUpdate.IsZero() {
		p.lastUpdate = now
	}
}

// canSend reports whether the pacer currently allows sending n bytes,
// refilling its budget based on elapsed time since the last call.
func (p *pacer) canSend(n int, now time.Time) bool {
	if p.rate <= 0 {
		return true
	}
	if !p.lastUpdate.IsZero() {
		elapsed := now.Sub(p.lastUpdate).Seconds()
		p.budget += elapsed * p.rate
	}
	p.lastUpdate = now
	return p.budget >= float64(n)
}

// spend deducts n bytes from the pacing budget after a send.
func (p *pacer) spend(n int) {
	p.budget -= float64(n)
	if p.budget < 0 {
		p.budget = 0
	}
}

// nextSendTime returns when the pacer expects to have budget for n bytes.
func (p *pacer) nextSendTime(n int, now time.Time) time.Time {
	if p.rate <= 0 || p.budget >= float64(n) {
		return now
	}
	need := float64(n) - p.budget
	return now.Add(time.Duration(need / p.rate * float64(time.Second)))
}
