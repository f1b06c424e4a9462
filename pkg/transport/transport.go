// Package transport provides the byte-stream endpoints a vehicle session
// can own: a UDP datagram server, a TCP client, and a serial port.
// Implementations are safe for one reader plus concurrent senders.
package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// recvChanSize buffers inbound chunks between the socket reader and
	// the session loop.
	recvChanSize = 256

	// readBufSize is the per-read buffer; larger than any MAVLink frame.
	readBufSize = 4096
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport: endpoint closed")

// ErrNoPeer is returned by the UDP server before any peer has spoken.
var ErrNoPeer = errors.New("transport: no peer address known yet")

// Endpoint is a byte-stream link to the vehicle. Receive yields raw
// chunks in arrival order; the channel closes when the endpoint closes
// or the underlying link fails.
type Endpoint interface {
	// Send writes one encoded frame to the link.
	Send(frame []byte) error
	// Receive returns the inbound byte-chunk channel.
	Receive() <-chan []byte
	// Close tears the link down and closes the receive channel.
	Close() error
	// String describes the endpoint for logs.
	String() string
}

// Dial parses an endpoint spec and opens the matching transport:
//
//	udp:0.0.0.0:14550      datagram server (first peer becomes the target)
//	tcp:10.0.0.5:5760      stream client
//	serial:/dev/ttyACM0:57600
//
// A bare host:port is treated as a UDP bind address.
func Dial(spec string) (Endpoint, error) {
	switch {
	case strings.HasPrefix(spec, "udp:"):
		return ListenUDP(strings.TrimPrefix(spec, "udp:"))
	case strings.HasPrefix(spec, "tcp:"):
		return DialTCP(strings.TrimPrefix(spec, "tcp:"))
	case strings.HasPrefix(spec, "serial:"):
		rest := strings.TrimPrefix(spec, "serial:")
		idx := strings.LastIndex(rest, ":")
		if idx <= 0 || idx == len(rest)-1 {
			return nil, fmt.Errorf("transport: serial spec %q needs device:baud", spec)
		}
		baud, err := strconv.Atoi(rest[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("transport: bad baud rate in %q: %w", spec, err)
		}
		return OpenSerial(rest[:idx], baud)
	case strings.Contains(spec, ":"):
		return ListenUDP(spec)
	default:
		return nil, fmt.Errorf("transport: unrecognised endpoint spec %q", spec)
	}
}
