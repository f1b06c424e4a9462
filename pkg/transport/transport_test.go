package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialSpecParsing(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{"UDPExplicit", "udp:127.0.0.1:0", false},
		{"UDPBare", "127.0.0.1:0", false},
		{"SerialMissingBaud", "serial:/dev/ttyACM0", true},
		{"SerialBadBaud", "serial:/dev/ttyACM0:fast", true},
		{"Unrecognised", "pigeon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := Dial(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, ep.Close())
		})
	}
}

func TestUDPServerAdoptsFirstPeer(t *testing.T) {
	srv, err := ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Close()

	// Before any peer talks, sends fail.
	assert.ErrorIs(t, srv.Send([]byte{0xFD}), ErrNoPeer)

	peer, err := net.DialUDP("udp", nil, srv.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer peer.Close()

	_, err = peer.Write([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)

	select {
	case chunk := <-srv.Receive():
		assert.Equal(t, []byte{0x01, 0x02, 0x03}, chunk)
	case <-time.After(2 * time.Second):
		t.Fatal("inbound chunk not delivered")
	}

	// Replies now reach the adopted peer.
	require.NoError(t, srv.Send([]byte{0xAA, 0xBB}))

	buf := make([]byte, 16)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := peer.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, buf[:n])
}

func TestUDPServerCloseEndsReceive(t *testing.T) {
	srv, err := ListenUDP("127.0.0.1:0")
	require.NoError(t, err)

	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Send([]byte{1}), ErrClosed)

	select {
	case _, ok := <-srv.Receive():
		assert.False(t, ok, "receive channel must close")
	case <-time.After(2 * time.Second):
		t.Fatal("receive channel did not close")
	}
}

func TestTCPClientRoundtrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := DialTCP(ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
	}
	defer server.Close()

	_, err = server.Write([]byte{0xFD, 0x01})
	require.NoError(t, err)

	select {
	case chunk := <-client.Receive():
		assert.Equal(t, []byte{0xFD, 0x01}, chunk)
	case <-time.After(2 * time.Second):
		t.Fatal("inbound chunk not delivered")
	}

	require.NoError(t, client.Send([]byte{0x42}))
	buf := make([]byte, 8)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x42}, buf[:n])
}

func TestTCPClientPeerDisconnectClosesReceive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	client, err := DialTCP(ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	select {
	case _, ok := <-client.Receive():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("receive channel did not close after peer disconnect")
	}
}
