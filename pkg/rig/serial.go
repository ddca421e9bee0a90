package rig

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate for the rig interface board.
	DefaultBaudRate = 115200
	// counterReplyTimeout bounds the wait for a counter bus reply. The
	// transaction runs outside the tight per-sample path, so a generous
	// timeout costs nothing in cadence.
	counterReplyTimeout = 50 * time.Millisecond
)

// Serial talks to the rig interface board over a serial link. The board
// streams input-state lines continuously; Serial latches the most recent
// one so the acquisition loop can read inputs without blocking. Counter bus
// transactions and the reset line are command/response over the same link.
type Serial struct {
	port     string
	baudRate int

	conn      serial.Port
	mu        sync.RWMutex
	latest    InputFrame
	counterCh chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewSerial creates a Serial rig on the given port.
func NewSerial(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		counterCh: make(chan []byte, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Port represents an available serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// WaitForPort polls until the configured port appears in the system port
// list or the timeout elapses. The wait is bounded so a headless deployment
// never hangs on a peer that will not arrive.
func WaitForPort(ctx context.Context, port string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		names, err := serial.GetPortsList()
		if err == nil {
			for _, name := range names {
				if name == port {
					return nil
				}
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("port %s did not appear within %s", port, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Connect opens the serial port and starts the reader goroutine.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: s.baudRate,
	}

	port, err := serial.Open(s.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.conn = port
	s.connected = true

	go s.readLines()

	return nil
}

// Close stops the reader goroutine and closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		s.conn = nil
	}

	s.connected = false

	return nil
}

// IsConnected returns whether the rig link is currently open.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Inputs returns the most recently streamed input states.
func (s *Serial) Inputs() InputFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// ReadFrom issues one counter bus transaction: it sends a read command with
// the peripheral address and byte count, then waits for the board's reply
// line. The board relays however many bytes the peripheral clocked out, so
// the returned slice may be shorter than n.
func (s *Serial) ReadFrom(addr byte, n int) ([]byte, error) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	// Flush any stale reply left over from a timed-out transaction.
	select {
	case <-s.counterCh:
	default:
	}

	cmd := fmt.Sprintf("C%02X%02X\n", addr, n)
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return nil, fmt.Errorf("failed to send counter read command: %w", err)
	}

	select {
	case buf := <-s.counterCh:
		return buf, nil
	case <-time.After(counterReplyTimeout):
		return nil, fmt.Errorf("counter reply timed out after %s", counterReplyTimeout)
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

// SetCounterReset drives the counter reset output on the board.
func (s *Serial) SetCounterReset(active bool) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	cmd := "Z0\n"
	if active {
		cmd = "Z1\n"
	}
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("failed to send reset command: %w", err)
	}
	return nil
}

// readLines reads lines from the board and dispatches them: counter replies
// go to the waiting transaction, everything else updates the input latch.
func (s *Serial) readLines() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(s.conn)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if reply, ok := strings.CutPrefix(line, "C,"); ok {
				buf, err := hex.DecodeString(reply)
				if err != nil {
					log.Printf("Failed to decode counter reply '%s': %v", line, err)
					continue
				}
				select {
				case s.counterCh <- buf:
				default:
					// No transaction waiting, drop the stale reply.
				}
				continue
			}

			frame, err := parseFrame(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			s.mu.Lock()
			s.latest = frame
			s.mu.Unlock()
		}
	}
}

// parseFrame parses an input-state line from the board.
// Format: trigger,direction,power,current,fuel,strain
// Example: 1,0,1,0642,0105,0488
func parseFrame(line string) (InputFrame, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 6 {
		return InputFrame{}, fmt.Errorf("invalid frame: expected 6 comma-separated values, got %d", len(parts))
	}

	digital := make([]bool, 3)
	for i := 0; i < 3; i++ {
		switch parts[i] {
		case "0":
			digital[i] = false
		case "1":
			digital[i] = true
		default:
			return InputFrame{}, fmt.Errorf("invalid digital state %q", parts[i])
		}
	}

	analog := make([]uint16, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(parts[3+i], 10, 16)
		if err != nil {
			return InputFrame{}, fmt.Errorf("invalid analog value: %w", err)
		}
		if v > 1023 {
			return InputFrame{}, fmt.Errorf("analog value out of range: %d (max 1023)", v)
		}
		analog[i] = uint16(v)
	}

	return InputFrame{
		Trigger:        digital[0],
		FlywheelDir:    digital[1],
		StarterPower:   digital[2],
		StarterCurrent: analog[0],
		FuelHtrCurrent: analog[1],
		StarterStrain:  analog[2],
	}, nil
}
