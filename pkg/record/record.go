package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Header is the column line written as the first line of every episode file.
const Header = "time_usec,flywheel_count,flywheel_direction,starter_pwr_k15,starter_current,fuel_htr_current,starter_housing_strain"

// MaxLineBytes is the encoded size of one sample line including the trailing
// newline. All fields are fixed-width, so every line is the same length.
const MaxLineBytes = 10 + 1 + 8 + 1 + 1 + 1 + 1 + 1 + 4 + 1 + 4 + 1 + 4 + 1

// Sample is one acquisition record: a microsecond timestamp, the 24-bit
// flywheel pulse count, two digital states, and three 10-bit analog readings.
type Sample struct {
	TimeMicros     uint32
	FlywheelCount  uint32 // 24-bit, masked on encode
	FlywheelDir    bool
	StarterPower   bool   // K15 feed
	StarterCurrent uint16 // 10-bit ADC (0-1023)
	FuelHtrCurrent uint16 // 10-bit ADC (0-1023)
	StarterStrain  uint16 // 10-bit ADC (0-1023)
}

// AppendText encodes s as one fixed-width comma-separated line and appends it
// to dst, returning the extended slice. Field grammar:
//
//	%010u,%08u,%1u,%1u,%04u,%04u,%04u\n
func (s Sample) AppendText(dst []byte) []byte {
	return fmt.Appendf(dst, "%010d,%08d,%d,%d,%04d,%04d,%04d\n",
		s.TimeMicros,
		s.FlywheelCount&0xFFFFFF,
		boolDigit(s.FlywheelDir),
		boolDigit(s.StarterPower),
		s.StarterCurrent,
		s.FuelHtrCurrent,
		s.StarterStrain,
	)
}

// String returns the encoded line without the trailing newline.
func (s Sample) String() string {
	line := s.AppendText(make([]byte, 0, MaxLineBytes))
	return string(line[:len(line)-1])
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseLine decodes one encoded sample line (with or without the trailing
// newline). Used by episode post-processing and round-trip tests.
func ParseLine(line string) (Sample, error) {
	line = strings.TrimSuffix(line, "\n")
	parts := strings.Split(line, ",")
	if len(parts) != 7 {
		return Sample{}, fmt.Errorf("invalid sample line: expected 7 fields, got %d", len(parts))
	}

	timeMicros, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Sample{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	count, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Sample{}, fmt.Errorf("invalid flywheel count: %w", err)
	}
	if count > 0xFFFFFF {
		return Sample{}, fmt.Errorf("flywheel count out of range: %d (max 16777215)", count)
	}

	dir, err := parseDigit(parts[2])
	if err != nil {
		return Sample{}, fmt.Errorf("invalid direction: %w", err)
	}
	pwr, err := parseDigit(parts[3])
	if err != nil {
		return Sample{}, fmt.Errorf("invalid starter power: %w", err)
	}

	analog := make([]uint16, 3)
	for i, name := range []string{"starter current", "fuel heater current", "starter strain"} {
		v, err := strconv.ParseUint(parts[4+i], 10, 16)
		if err != nil {
			return Sample{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		if v > 1023 {
			return Sample{}, fmt.Errorf("%s out of range: %d (max 1023)", name, v)
		}
		analog[i] = uint16(v)
	}

	return Sample{
		TimeMicros:     uint32(timeMicros),
		FlywheelCount:  uint32(count),
		FlywheelDir:    dir,
		StarterPower:   pwr,
		StarterCurrent: analog[0],
		FuelHtrCurrent: analog[1],
		StarterStrain:  analog[2],
	}, nil
}

func parseDigit(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("expected 0 or 1, got %q", s)
}
