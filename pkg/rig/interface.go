package rig

// InputFrame is the latest known state of the six acquisition inputs: the
// trigger, the two digital lines and the three 10-bit analog channels.
type InputFrame struct {
	Trigger        bool
	FlywheelDir    bool
	StarterPower   bool
	StarterCurrent uint16
	FuelHtrCurrent uint16
	StarterStrain  uint16
}

// Rig is the hardware front end of the test stand: latched input states,
// the counter two-wire bus, and the counter reset output.
type Rig interface {
	Connect() error
	Close() error
	// Inputs returns the most recent input states. Reads never block; the
	// acquisition loop calls this once per tick.
	Inputs() InputFrame
	// ReadFrom issues one counter bus transaction (satisfies counter.Bus).
	ReadFrom(addr byte, n int) ([]byte, error)
	// SetCounterReset drives the counter reset output line.
	SetCounterReset(active bool) error
	IsConnected() bool
}

// Ensure Rig implementations stay in sync with the interface.
var (
	_ Rig = (*Serial)(nil)
	_ Rig = (*Mock)(nil)
)
