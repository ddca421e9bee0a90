//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	adcStarterCurrent machine.ADC
	adcFuelCurrent    machine.ADC
	adcStrain         machine.ADC
	uart              = machine.UART0
	i2c               = machine.I2C0

	// Timing
	lastStream time.Time

	// Serial buffer for reading command lines
	serialBuffer [16]byte
	serialPos    int
)

func main() {
	// Configure digital inputs
	PIN_TRIGGER.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_DIRECTION.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_STARTER_PWR.Configure(machine.PinConfig{Mode: machine.PinInput})

	// Counter reset output. Held asserted after boot until the host says
	// otherwise; the documented rig wiring never deasserts it.
	PIN_COUNTER_RESET.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_COUNTER_RESET.High()

	// Configure ADC pins
	PIN_STARTER_CURRENT.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_FUEL_CURRENT.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_STRAIN.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcStarterCurrent = machine.ADC{Pin: PIN_STARTER_CURRENT}
	adcFuelCurrent = machine.ADC{Pin: PIN_FUEL_CURRENT}
	adcStrain = machine.ADC{Pin: PIN_STRAIN}

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	adcStarterCurrent.Configure(adcConfig)
	adcFuelCurrent.Configure(adcConfig)
	adcStrain.Configure(adcConfig)

	// Counter bus
	i2c.Configure(machine.I2CConfig{})

	// UART to the host
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastStream = time.Now()

	// Main loop
	for {
		now := time.Now()

		// Check for host commands (non-blocking)
		processSerial()

		// Stream the current input frame
		if now.Sub(lastStream) >= time.Duration(STREAM_INTERVAL_MS)*time.Millisecond {
			outputFrame()
			lastStream = now
		}

		time.Sleep(100 * time.Microsecond)
	}
}

// outputFrame prints one input-state line.
// Format: "trigger,direction,power,current,fuel,strain\n"
// Example: "1,0,1,0642,0105,0488\n"
func outputFrame() {
	printDigit(PIN_TRIGGER.Get())
	print(",")
	printDigit(PIN_DIRECTION.Get())
	print(",")
	printDigit(PIN_STARTER_PWR.Get())
	print(",")
	printAnalog(adcStarterCurrent.Get())
	print(",")
	printAnalog(adcFuelCurrent.Get())
	print(",")
	printAnalog(adcStrain.Get())
	print("\n")
}

func printDigit(b bool) {
	if b {
		print("1")
	} else {
		print("0")
	}
}

// printAnalog prints a 10-bit reading zero-padded to 4 digits. The machine
// ADC returns 16-bit left-justified values regardless of the configured
// resolution, so shift back down to 10 bits first.
func printAnalog(raw uint16) {
	v := raw >> 6
	print(string([]byte{
		'0' + byte(v/1000%10),
		'0' + byte(v/100%10),
		'0' + byte(v/10%10),
		'0' + byte(v%10),
	}))
}

func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			handleCommand()
			serialPos = 0
			continue
		}

		if data == ' ' || data == '\t' {
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		}
		// Extra bytes before the newline are dropped.
	}
}

// handleCommand dispatches one complete command line.
//
//	CAANN — read NN (hex) bytes from counter bus address AA (hex),
//	        reply "C,<hex bytes>\n"
//	Z0/Z1 — drive the counter reset line
func handleCommand() {
	if serialPos == 0 {
		return
	}

	switch serialBuffer[0] {
	case 'C':
		if serialPos != 5 {
			return
		}
		addr, ok1 := hexByte(serialBuffer[1], serialBuffer[2])
		n, ok2 := hexByte(serialBuffer[3], serialBuffer[4])
		if !ok1 || !ok2 || n == 0 || n > 8 {
			return
		}
		readCounter(addr, int(n))
	case 'Z':
		if serialPos != 2 {
			return
		}
		switch serialBuffer[1] {
		case '0':
			PIN_COUNTER_RESET.Low()
		case '1':
			PIN_COUNTER_RESET.High()
		}
	}
}

// readCounter runs one bus read transaction and replies with the bytes
// read. A failed transaction replies with an empty payload so the host sees
// a short read instead of stale data.
func readCounter(addr byte, n int) {
	var buf [8]byte
	err := i2c.Tx(uint16(addr), nil, buf[:n])

	print("C,")
	if err == nil {
		for i := 0; i < n; i++ {
			print(string(hexDigits(buf[i])))
		}
	}
	print("\n")
}

func hexDigits(b byte) []byte {
	const hex = "0123456789ABCDEF"
	return []byte{hex[b>>4], hex[b&0x0F]}
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexNibble(hi)
	l, ok2 := hexNibble(lo)
	return h<<4 | l, ok1 && ok2
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
