// Package units converts raw 10-bit ADC readings and counter deltas to
// engineering units for the live status display. Episode files always store
// the raw values; conversion is a display concern only.
package units

import (
	"github.com/chewxy/math32"

	"github.com/starterbench/crankdaq/pkg/config"
)

const adcFullScale = 1023.0

// Converter applies the rig calibration to raw readings.
type Converter struct {
	cal config.CalibrationConfig
}

// NewConverter creates a Converter from the calibration configuration.
func NewConverter(cal config.CalibrationConfig) *Converter {
	return &Converter{cal: cal}
}

// adcVolts converts a 10-bit ADC reading to volts at the ADC pin.
func (c *Converter) adcVolts(raw uint16) float32 {
	return (float32(raw) / adcFullScale) * c.cal.VRef
}

// StarterAmps converts a raw starter-current reading to amps through the
// starter shunt.
func (c *Converter) StarterAmps(raw uint16) float32 {
	if c.cal.ShuntOhms == 0 {
		return 0
	}
	return c.adcVolts(raw) / c.cal.ShuntOhms
}

// FuelHeaterAmps converts a raw fuel-heater current reading to amps.
func (c *Converter) FuelHeaterAmps(raw uint16) float32 {
	if c.cal.FuelShuntOhms == 0 {
		return 0
	}
	return c.adcVolts(raw) / c.cal.FuelShuntOhms
}

// StrainNewtons converts a raw strain reading to newtons on the starter
// housing bracket.
func (c *Converter) StrainNewtons(raw uint16) float32 {
	return c.adcVolts(raw) * c.cal.NewtonsPerVolt
}

// RPM converts a flywheel count delta over an elapsed time to revolutions
// per minute. deltaCounts is the 24-bit counter difference over
// elapsedMicros; both come from consecutive samples.
func (c *Converter) RPM(deltaCounts uint32, elapsedMicros uint32) float32 {
	if c.cal.CountsPerRev == 0 || elapsedMicros == 0 {
		return 0
	}
	revs := float32(deltaCounts) / c.cal.CountsPerRev
	minutes := float32(elapsedMicros) / 60e6
	return math32.Round(revs / minutes)
}
