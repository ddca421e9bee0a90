package clock

import "time"

// SamplePeriodMicros is the interval between recorded samples during an
// episode. The nominal sample rate is derived from it (2500 Hz); do not
// duplicate the rate as a second constant.
const SamplePeriodMicros = 400

// Micros is a wrapping 32-bit microsecond timestamp. The counter overflows
// silently roughly every 71.6 minutes, so all comparisons must go through
// unsigned subtraction rather than direct ordering.
type Micros uint32

// Sub returns the elapsed microseconds from earlier to m, correct across a
// single wrap of the counter.
func (m Micros) Sub(earlier Micros) uint32 {
	return uint32(m - earlier)
}

// Timebase provides the current microsecond timestamp.
type Timebase interface {
	Now() Micros
}

// Monotonic is a Timebase backed by the runtime monotonic clock, truncated
// to 32 bits to match the acquisition timestamp width.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a Timebase that starts counting from zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now returns microseconds elapsed since the timebase was created.
func (m *Monotonic) Now() Micros {
	return Micros(time.Since(m.start).Microseconds())
}

// SampleClock decides when the next sample is due. It resynchronizes to
// actual elapsed time on every due sample: the reference point becomes the
// moment the sample was taken, not a fixed-phase grid, so late ticks skew
// the cadence instead of producing catch-up bursts.
type SampleClock struct {
	period uint32
	last   Micros
}

// NewSampleClock creates a clock with the given period in microseconds.
func NewSampleClock(periodMicros uint32) *SampleClock {
	if periodMicros == 0 {
		periodMicros = SamplePeriodMicros
	}
	return &SampleClock{period: periodMicros}
}

// Period returns the configured sample period in microseconds.
func (c *SampleClock) Period() uint32 {
	return c.period
}

// Restart re-references the clock to now. Called at the Idle->Recording
// transition so the first sample of an episode lands one period after the
// trigger edge.
func (c *SampleClock) Restart(now Micros) {
	c.last = now
}

// Due reports whether a sample is due at now and, if so, re-references the
// clock to now. The subtraction is wrap-safe: a now that has wrapped past
// zero still compares correctly against a pre-wrap reference.
func (c *SampleClock) Due(now Micros) bool {
	if now.Sub(c.last) < c.period {
		return false
	}
	c.last = now
	return true
}
