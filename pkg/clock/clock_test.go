package clock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleClock_Due(t *testing.T) {
	c := NewSampleClock(400)
	c.Restart(1000)

	assert.False(t, c.Due(1000), "due immediately after restart")
	assert.False(t, c.Due(1399), "one microsecond early")
	assert.True(t, c.Due(1400), "exactly one period elapsed")
	assert.False(t, c.Due(1400), "same instant must not fire twice")
	assert.True(t, c.Due(1801), "next period, one late")
}

func TestSampleClock_ResyncsToElapsedTime(t *testing.T) {
	c := NewSampleClock(400)
	c.Restart(0)

	// A late tick re-references the schedule to the actual sample time,
	// so the following sample is a full period after the late one.
	assert.True(t, c.Due(650))
	assert.False(t, c.Due(800), "no catch-up burst after a late tick")
	assert.False(t, c.Due(1049))
	assert.True(t, c.Due(1050))
}

func TestSampleClock_Wraparound(t *testing.T) {
	tests := []struct {
		name string
		last Micros
		now  Micros
		due  bool
	}{
		{
			name: "just before wrap, not due",
			last: math.MaxUint32 - 100,
			now:  math.MaxUint32 - 1,
			due:  false,
		},
		{
			name: "straddling wrap, due",
			last: math.MaxUint32 - 100,
			now:  300, // 401 microseconds later
			due:  true,
		},
		{
			name: "straddling wrap, not yet due",
			last: math.MaxUint32 - 100,
			now:  250, // 351 microseconds later
			due:  false,
		},
		{
			name: "exactly at wrap boundary",
			last: math.MaxUint32 - 399,
			now:  0, // 400 microseconds later
			due:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSampleClock(400)
			c.Restart(tt.last)
			assert.Equal(t, tt.due, c.Due(tt.now))
		})
	}
}

func TestSampleClock_RecordCountOverFixedDuration(t *testing.T) {
	// An episode lasting exactly 10 periods yields exactly 10 samples when
	// the clock is restarted at the trigger edge.
	c := NewSampleClock(400)
	c.Restart(0)

	count := 0
	for now := Micros(1); now <= 4000; now++ {
		if c.Due(now) {
			count++
		}
	}
	assert.Equal(t, 10, count)
}

func TestMicros_Sub(t *testing.T) {
	assert.Equal(t, uint32(5), Micros(10).Sub(5))
	assert.Equal(t, uint32(11), Micros(10).Sub(math.MaxUint32))
}

func TestNewSampleClock_ZeroPeriodDefaults(t *testing.T) {
	c := NewSampleClock(0)
	assert.Equal(t, uint32(SamplePeriodMicros), c.Period())
}
