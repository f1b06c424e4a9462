package transport

import (
	"fmt"
	"log/slog"
	"sync"

	"go.bug.st/serial"
)

// SerialPort streams bytes over a local serial device (telemetry radio or
// direct USB link).
type SerialPort struct {
	device string
	baud   int
	port   serial.Port
	frames chan []byte

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens the device at the given baud rate, 8N1.
func OpenSerial(device string, baud int) (*SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", device, err)
	}

	p := &SerialPort{
		device: device,
		baud:   baud,
		port:   port,
		frames: make(chan []byte, recvChanSize),
	}
	go p.readLoop()
	return p, nil
}

func (p *SerialPort) readLoop() {
	defer close(p.frames)
	buf := make([]byte, readBufSize)
	for {
		n, err := p.port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.frames <- chunk:
			default:
			}
		}
		if err != nil {
			p.mu.Lock()
			closed := p.closed
			p.mu.Unlock()
			if !closed {
				slog.Warn("serial read failed", "device", p.device, "error", err)
			}
			return
		}
	}
}

// Send writes one frame to the port.
func (p *SerialPort) Send(frame []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if _, err := p.port.Write(frame); err != nil {
		return fmt.Errorf("transport: serial send: %w", err)
	}
	return nil
}

// Receive returns the inbound chunk channel.
func (p *SerialPort) Receive() <-chan []byte { return p.frames }

// Close closes the port.
func (p *SerialPort) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.port.Close()
}

func (p *SerialPort) String() string {
	return fmt.Sprintf("serial:%s:%d", p.device, p.baud)
}
