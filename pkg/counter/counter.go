// Package counter reads the external flywheel pulse counter over its
// two-wire bus.
package counter

import (
	"errors"
	"fmt"
)

const (
	// Address is the counter peripheral's fixed bus address.
	Address = 0x33
	// readLen is the size of one count transaction: three bytes composing a
	// 24-bit value.
	readLen = 3
)

// ErrShortRead reports a bus transaction that returned fewer than the
// expected three bytes. The composed value returned alongside it contains
// the bytes that did arrive, with the missing low bytes zero; callers count
// the fault and decide whether to keep the partial value.
var ErrShortRead = errors.New("counter: short bus read")

// Bus is the two-wire transaction the reader issues. Implementations
// return the bytes actually read, which may be fewer than requested when
// the peripheral stops clocking early.
type Bus interface {
	ReadFrom(addr byte, n int) ([]byte, error)
}

// Reader composes 24-bit counts from the external counter peripheral.
type Reader struct {
	bus Bus
}

// NewReader creates a Reader on the given bus.
func NewReader(bus Bus) *Reader {
	return &Reader{bus: bus}
}

// Read performs one 3-byte transaction and composes the count big-endian
// (first byte is the most significant). A short read returns the partial
// composition together with ErrShortRead; a bus error returns zero and the
// wrapped error.
func (r *Reader) Read() (uint32, error) {
	buf, err := r.bus.ReadFrom(Address, readLen)
	if err != nil {
		return 0, fmt.Errorf("counter: bus read: %w", err)
	}

	var count uint32
	for _, b := range buf[:min(len(buf), readLen)] {
		count = count<<8 | uint32(b)
	}
	// Shift the bytes we did get into their big-endian positions so a
	// partial value is at least monotone with the true count.
	for i := len(buf); i < readLen; i++ {
		count <<= 8
	}

	if len(buf) < readLen {
		return count, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, len(buf), readLen)
	}
	return count, nil
}
