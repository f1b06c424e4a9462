package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const tcpDialTimeout = 5 * time.Second

// TCPClient connects to a MAVLink TCP endpoint (mavlink-router, SITL's
// tcp ports) and streams raw bytes.
type TCPClient struct {
	addr   string
	conn   net.Conn
	frames chan []byte

	mu     sync.Mutex
	closed bool
}

// DialTCP connects and starts the read loop.
func DialTCP(addr string) (*TCPClient, error) {
	conn, err := net.DialTimeout("tcp", addr, tcpDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}

	c := &TCPClient{
		addr:   addr,
		conn:   conn,
		frames: make(chan []byte, recvChanSize),
	}
	go c.readLoop()
	return c, nil
}

func (c *TCPClient) readLoop() {
	defer close(c.frames)
	buf := make([]byte, readBufSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case c.frames <- chunk:
			default:
			}
		}
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed && !errors.Is(err, net.ErrClosed) {
				slog.Warn("TCP read failed", "addr", c.addr, "error", err)
			}
			return
		}
	}
}

// Send writes one frame to the stream.
func (c *TCPClient) Send(frame []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("transport: tcp send: %w", err)
	}
	return nil
}

// Receive returns the inbound chunk channel.
func (c *TCPClient) Receive() <-chan []byte { return c.frames }

// Close closes the connection.
func (c *TCPClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *TCPClient) String() string { return "tcp:" + c.addr }
