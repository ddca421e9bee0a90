package rig

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starterbench/crankdaq/pkg/config"
)

// Mock simulates the rig hardware for testing and bench-less development.
// Tests script it directly through the setters; `run --mock` drives it with
// Simulate, which cranks the simulated starter on a fixed cycle.
type Mock struct {
	mu        sync.RWMutex
	frame     InputFrame
	count     uint32 // simulated 24-bit flywheel count
	resetLine bool
	connected bool

	// Fault injection for tests.
	counterReplyLen int // bytes returned per counter read; 3 when zero
	counterErr      error

	cfg    *config.MockConfig
	cancel context.CancelFunc
}

// NewMock creates a mocked rig. cfg may be nil when the mock is scripted
// directly by tests.
func NewMock(cfg *config.MockConfig) *Mock {
	return &Mock{cfg: cfg, counterReplyLen: 3}
}

// Connect marks the mock as connected and, when configured, starts the
// cranking-cycle simulation.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	m.connected = true

	if m.cfg != nil {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		go m.simulate(ctx)
	}

	return nil
}

// Close stops the simulation.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.connected = false
	return nil
}

// IsConnected returns whether the mock is connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Inputs returns the current scripted input states.
func (m *Mock) Inputs() InputFrame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame
}

// SetInputs replaces all input states at once.
func (m *Mock) SetInputs(frame InputFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = frame
}

// SetTrigger sets only the trigger line.
func (m *Mock) SetTrigger(high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame.Trigger = high
}

// AdvanceCount adds to the simulated flywheel count, wrapping at 24 bits.
func (m *Mock) AdvanceCount(delta uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = (m.count + delta) & 0xFFFFFF
}

// SetCount sets the simulated flywheel count.
func (m *Mock) SetCount(count uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = count & 0xFFFFFF
}

// FailCounterReads makes subsequent counter transactions return err, or a
// short reply of replyLen bytes when err is nil.
func (m *Mock) FailCounterReads(replyLen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterReplyLen = replyLen
	m.counterErr = err
}

// ReadFrom answers a counter bus transaction with the simulated count,
// big-endian, honoring any injected fault.
func (m *Mock) ReadFrom(addr byte, n int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.counterErr != nil {
		return nil, m.counterErr
	}

	buf := []byte{
		byte(m.count >> 16),
		byte(m.count >> 8),
		byte(m.count),
	}
	replyLen := m.counterReplyLen
	if replyLen > len(buf) || replyLen < 0 {
		replyLen = len(buf)
	}
	if replyLen < n {
		return buf[:replyLen], nil
	}
	return buf[:n], nil
}

// SetCounterReset records the reset line state.
func (m *Mock) SetCounterReset(active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLine = active
	return nil
}

// CounterResetAsserted reports the last reset line state set.
func (m *Mock) CounterResetAsserted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resetLine
}

// simulate cranks the simulated starter on a fixed cycle: trigger high for
// CrankDuration, low for the rest of CrankPeriod, with the flywheel count
// and starter current moving while cranking.
func (m *Mock) simulate(ctx context.Context) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	ripplePhase := 0

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(start) % m.cfg.CrankPeriod
			cranking := elapsed < m.cfg.CrankDuration

			m.mu.Lock()
			m.frame.Trigger = cranking
			m.frame.StarterPower = cranking
			if cranking {
				m.count = (m.count + m.cfg.CountsPerTick) & 0xFFFFFF
				ripplePhase++
				ripple := uint16(0)
				if m.cfg.CurrentRipple > 0 {
					ripple = uint16(ripplePhase) % m.cfg.CurrentRipple
				}
				m.frame.StarterCurrent = clamp10(m.cfg.CurrentBase + ripple)
				m.frame.StarterStrain = clamp10(m.cfg.CurrentBase/2 + ripple)
				m.frame.FuelHtrCurrent = clamp10(m.cfg.CurrentBase / 4)
			} else {
				m.frame.StarterCurrent = 0
				m.frame.StarterStrain = 0
			}
			m.mu.Unlock()
		}
	}
}

func clamp10(v uint16) uint16 {
	if v > 1023 {
		return 1023
	}
	return v
}
