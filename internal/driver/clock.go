package driver

import (
	"time"
)

// ioClock maps elapsed host time to sample positions on fixed period
// boundaries. The host queries it once per IO cycle to correlate audio
// timestamps across devices, independent of whether the transport actually
// has data for that position.
//
// The clock is created on stream start and discarded on stream stop; a later
// start gets a fresh, unrelated time origin.
type ioClock struct {
	start          time.Time
	periodFrames   uint64
	ticksPerPeriod time.Duration
}

// newIOClock captures start as the time origin and derives the fixed period
// duration from the negotiated format. The nanosecond value is truncated
// once here; all later arithmetic is integer.
func newIOClock(sampleRate, periodFrames int, start time.Time) *ioClock {
	ns := float64(periodFrames) / float64(sampleRate) * 1e9
	return &ioClock{
		start:          start,
		periodFrames:   uint64(periodFrames),
		ticksPerPeriod: time.Duration(ns),
	}
}

// timestamp returns the sample position that should currently be playing and
// the host time at which that position began. The result is quantized down
// to the most recent period boundary, never rounded or extrapolated, so the
// returned pair is self-consistent by construction.
func (c *ioClock) timestamp(now time.Time) (samplePosition uint64, hostTime time.Time) {
	elapsed := now.Sub(c.start)
	if elapsed < 0 {
		return 0, c.start
	}
	periods := uint64(elapsed / c.ticksPerPeriod)
	return periods * c.periodFrames, c.start.Add(time.Duration(periods) * c.ticksPerPeriod)
}

// periodDuration returns the host-time length of one period.
func (c *ioClock) periodDuration() time.Duration {
	return c.ticksPerPeriod
}
