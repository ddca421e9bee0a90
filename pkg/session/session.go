// Package session runs the trigger-driven recording loop: it watches the
// trigger line, samples the rig inputs and the flywheel counter at a fixed
// period while recording, and hands the buffered episode to the store when
// the trigger drops.
package session

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/starterbench/crankdaq/pkg/buffer"
	"github.com/starterbench/crankdaq/pkg/clock"
	"github.com/starterbench/crankdaq/pkg/counter"
	"github.com/starterbench/crankdaq/pkg/record"
	"github.com/starterbench/crankdaq/pkg/rig"
)

// Inputs is the slice of the rig the recorder reads each tick.
type Inputs interface {
	Inputs() rig.InputFrame
}

// Store drains one completed episode and returns the file name written.
type Store interface {
	Drain(data []byte) (string, error)
}

// Episode summarizes one completed recording episode.
type Episode struct {
	File        string // empty when the drain failed
	StartMicros clock.Micros
	EndMicros   clock.Micros
	Records     uint64
	Bytes       int
	Overflows   uint64 // buffer wraps during this episode (data loss)
	BusFaults   uint64 // short/failed counter reads during this episode
}

// Stats is a snapshot of the recorder counters, safe to read from outside
// the acquisition loop.
type Stats struct {
	Recording   bool
	Episodes    uint64
	Records     uint64
	BusFaults   uint64
	Overflows   uint64
	StoreFaults uint64
	LastCount   uint32
	LastFrame   rig.InputFrame
}

// Options configures a Recorder.
type Options struct {
	PeriodMicros   uint32 // sample period; clock.SamplePeriodMicros when zero
	BufferCapacity int    // buffer.DefaultCapacity when zero
}

// Recorder owns the recording state machine, the sample clock, and the
// episode buffer. The buffer and all episode-local state are touched only
// by the goroutine driving Tick; the exported counters are atomics so a
// status display can observe progress without locks.
type Recorder struct {
	inputs  Inputs
	counter *counter.Reader
	clk     *clock.SampleClock
	buf     *buffer.Buffer
	store   Store

	onEpisode func(Episode)

	// Loop-owned episode state.
	start        clock.Micros
	epRecords    uint64
	epBusFaults  uint64
	prevOverflow uint64
	scratch      []byte

	// Observable counters.
	recording   atomic.Bool
	episodes    atomic.Uint64
	records     atomic.Uint64
	busFaults   atomic.Uint64
	overflows   atomic.Uint64
	storeFaults atomic.Uint64
	lastCount   atomic.Uint32
	lastFrame   atomic.Pointer[rig.InputFrame]
}

// New creates a Recorder reading from inputs and bus, draining to store.
func New(inputs Inputs, bus counter.Bus, store Store, opts Options) *Recorder {
	return &Recorder{
		inputs:  inputs,
		counter: counter.NewReader(bus),
		clk:     clock.NewSampleClock(opts.PeriodMicros),
		buf:     buffer.New(opts.BufferCapacity),
		store:   store,
		scratch: make([]byte, 0, record.MaxLineBytes),
	}
}

// OnEpisode registers a callback invoked synchronously from the acquisition
// loop after each episode drain attempt. The callback must return quickly;
// it runs between episodes, never inside the per-sample path.
func (r *Recorder) OnEpisode(fn func(Episode)) {
	r.onEpisode = fn
}

// Recording reports whether an episode is currently open.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// Stats returns a snapshot of the recorder counters.
func (r *Recorder) Stats() Stats {
	s := Stats{
		Recording:   r.recording.Load(),
		Episodes:    r.episodes.Load(),
		Records:     r.records.Load(),
		BusFaults:   r.busFaults.Load(),
		Overflows:   r.overflows.Load(),
		StoreFaults: r.storeFaults.Load(),
		LastCount:   r.lastCount.Load(),
	}
	if f := r.lastFrame.Load(); f != nil {
		s.LastFrame = *f
	}
	return s
}

// Tick runs one pass of the recording state machine at the given timestamp.
//
// Entry is evaluated before exit: a trigger pulse that is high for a single
// tick still opens an episode, and the exit check only runs when the tick
// did not just enter. Evaluating both conditions independently in the same
// tick could open and immediately drain an empty episode.
func (r *Recorder) Tick(now clock.Micros) {
	frame := r.inputs.Inputs()
	r.lastFrame.Store(&frame)

	switch {
	case frame.Trigger && !r.recording.Load():
		// Discard any residual content from a prior episode.
		r.buf.Reset()
		r.clk.Restart(now)
		r.start = now
		r.epRecords = 0
		r.epBusFaults = 0
		r.prevOverflow = 0
		r.recording.Store(true)
		return
	case !frame.Trigger && r.recording.Load():
		r.finish(now)
		r.recording.Store(false)
		return
	}

	if r.recording.Load() && r.clk.Due(now) {
		r.sample(now, frame)
	}
}

// sample reads the counter, encodes one record, and appends it.
func (r *Recorder) sample(now clock.Micros, frame rig.InputFrame) {
	count, err := r.counter.Read()
	if err != nil {
		// Losing one sample must not abort the episode: keep the partial
		// count, bump the fault counter, and carry on.
		r.busFaults.Add(1)
		r.epBusFaults++
		log.Printf("counter read fault: %v", err)
	}
	r.lastCount.Store(count)

	s := record.Sample{
		TimeMicros:     uint32(now),
		FlywheelCount:  count,
		FlywheelDir:    frame.FlywheelDir,
		StarterPower:   frame.StarterPower,
		StarterCurrent: frame.StarterCurrent,
		FuelHtrCurrent: frame.FuelHtrCurrent,
		StarterStrain:  frame.StarterStrain,
	}
	r.scratch = s.AppendText(r.scratch[:0])
	r.buf.Append(r.scratch)

	if wraps := r.buf.Overflows(); wraps != r.prevOverflow {
		r.overflows.Add(wraps - r.prevOverflow)
		r.prevOverflow = wraps
		log.Printf("sample buffer wrapped: episode exceeds capacity, oldest samples lost")
	}

	r.epRecords++
	r.records.Add(1)
}

// finish drains the buffer to the store and reports the episode.
func (r *Recorder) finish(now clock.Micros) {
	ep := Episode{
		StartMicros: r.start,
		EndMicros:   now,
		Records:     r.epRecords,
		Bytes:       r.buf.Len(),
		Overflows:   r.buf.Overflows(),
		BusFaults:   r.epBusFaults,
	}

	name, err := r.store.Drain(r.buf.Bytes())
	if err != nil {
		r.storeFaults.Add(1)
		log.Printf("episode drain failed: %v", err)
	} else {
		ep.File = name
	}
	r.episodes.Add(1)

	if r.onEpisode != nil {
		r.onEpisode(ep)
	}
}

// Run drives Tick until the context is canceled. The loop is cooperative:
// one tick runs to completion, then the goroutine yields briefly. The sleep
// is well under the sample period, so scheduling jitter shifts individual
// samples rather than dropping them.
func (r *Recorder) Run(ctx context.Context, tb clock.Timebase) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.Tick(tb.Now())
		time.Sleep(100 * time.Microsecond)
	}
}
