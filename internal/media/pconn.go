package media

import (
	"net"
	"time"
)

// udpConnAdapter presents one peer's slice of a shared *net.UDPConn as a
// net.Conn so pion/dtls can drive a passive handshake over it. The relay
// loop owns the real socket; it demultiplexes inbound packets by source
// address and feeds this peer's share into inbound via Push. Nothing here
// ever calls ReadFromUDP itself.
type udpConnAdapter struct {
	socket   *net.UDPConn
	peerAddr *net.UDPAddr
	inbound  chan []byte
	closed   chan struct{}
}

func newUDPConnAdapter(socket *net.UDPConn, peerAddr *net.UDPAddr) *udpConnAdapter {
	return &udpConnAdapter{
		socket:   socket,
		peerAddr: peerAddr,
		inbound:  make(chan []byte, 128),
		closed:   make(chan struct{}),
	}
}

// Push delivers one demultiplexed datagram to the handshake goroutine.
// Non-blocking: a handshake that isn't keeping up drops packets rather
// than stalling the relay's receive loop.
func (c *udpConnAdapter) Push(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case c.inbound <- cp:
	default:
	}
}

func (c *udpConnAdapter) Read(b []byte) (int, error) {
	select {
	case data, ok := <-c.inbound:
		if !ok {
			return 0, net.ErrClosed
		}
		n := copy(b, data)
		return n, nil
	case <-c.closed:
		return 0, net.ErrClosed
	}
}

func (c *udpConnAdapter) Write(b []byte) (int, error) {
	return c.socket.WriteToUDP(b, c.peerAddr)
}

func (c *udpConnAdapter) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

func (c *udpConnAdapter) LocalAddr() net.Addr  { return c.socket.LocalAddr() }
func (c *udpConnAdapter) RemoteAddr() net.Addr { return c.peerAddr }

func (c *udpConnAdapter) SetDeadline(t time.Time) error      { return nil }
func (c *udpConnAdapter) SetReadDeadline(t time.Time) error  { return nil }
func (c *udpConnAdapter) SetWriteDeadline(t time.Time) error { return nil }
