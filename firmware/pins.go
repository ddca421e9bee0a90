//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	STREAM_INTERVAL_MS = 10 // input frame stream interval; the host latches the latest frame

	// Digital inputs
	PIN_TRIGGER     = machine.D2 // starter engagement (high = cranking)
	PIN_DIRECTION   = machine.D3 // flywheel rotation direction
	PIN_STARTER_PWR = machine.D4 // K15 starter feed sense

	// Counter reset output
	PIN_COUNTER_RESET = machine.D5

	// Analog inputs
	PIN_STARTER_CURRENT = machine.A1
	PIN_FUEL_CURRENT    = machine.A2
	PIN_STRAIN          = machine.A3

	// ADC configuration
	ADC_REFERENCE_MV = 3300
	ADC_RESOLUTION   = 10 // the rig's channels are 10-bit (0-1023)

	// Serial configuration
	// Frame "1,0,1,0642,0105,0488\n" = 22 bytes; 100 frames/sec = 2,200
	// bytes/sec, well inside 115200 baud (11,520 bytes/sec max).
	UART_BAUD_RATE = 115200
)
