package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// UDPServer binds a local datagram socket and adopts the first peer that
// sends to it as the reply address until closed. SITL and telemetry
// radios both speak this pattern.
type UDPServer struct {
	conn   *net.UDPConn
	frames chan []byte

	mu     sync.Mutex
	peer   *net.UDPAddr
	closed bool
}

// ListenUDP binds the given host:port and starts the read loop.
func ListenUDP(bind string) (*UDPServer, error) {
	addr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", bind, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: bind %s: %w", bind, err)
	}

	s := &UDPServer{
		conn:   conn,
		frames: make(chan []byte, recvChanSize),
	}
	go s.readLoop()
	return s, nil
}

func (s *UDPServer) readLoop() {
	defer close(s.frames)
	buf := make([]byte, readBufSize)
	for {
		n, peer, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed && !errors.Is(err, net.ErrClosed) {
				slog.Warn("UDP read failed", "error", err)
			}
			return
		}

		s.mu.Lock()
		if s.peer == nil {
			s.peer = peer
			slog.Info("UDP peer adopted", "peer", peer.String())
		}
		s.mu.Unlock()

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case s.frames <- chunk:
		default:
			// Session loop is stalled; drop rather than block the socket.
		}
	}
}

// Send transmits one frame to the adopted peer.
func (s *UDPServer) Send(frame []byte) error {
	s.mu.Lock()
	peer := s.peer
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if peer == nil {
		return ErrNoPeer
	}
	if _, err := s.conn.WriteToUDP(frame, peer); err != nil {
		return fmt.Errorf("transport: udp send: %w", err)
	}
	return nil
}

// Receive returns the inbound chunk channel.
func (s *UDPServer) Receive() <-chan []byte { return s.frames }

// Close shuts the socket; the receive channel closes after the read loop
// drains out.
func (s *UDPServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

// LocalAddr exposes the bound address (useful when binding port 0).
func (s *UDPServer) LocalAddr() net.Addr { return s.conn.LocalAddr() }

func (s *UDPServer) String() string {
	return "udp:" + s.conn.LocalAddr().String()
}
