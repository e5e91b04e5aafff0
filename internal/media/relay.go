package media

import (
	"net"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/stun/v3"
	"github.com/rs/zerolog"
)

const udpRecvBufferSize = 1500

// PeerHandle is the minimal view of a media endpoint the relay needs.
// internal/core's endpoint registry implements it directly on
// domain.Endpoint so this package never imports domain (it exists one
// layer below it).
type PeerHandle interface {
	Key() string
	PeerUfrag() string
	PeerIcePassword() string
	PeerUserID() string
	InboundCtx() *SRTPContext
	OutboundCtx() *SRTPContext
	Addr() *net.UDPAddr
	LatchAddr(addr *net.UDPAddr, nowMs int64)
	RecordSSRC(ssrc uint32)
}

// PeerSource is the registry lookup surface the relay depends on. It is
// satisfied by internal/core's endpoint registry.
type PeerSource interface {
	ByAddr(addr *net.UDPAddr) (PeerHandle, bool)
	ByUfrag(ufrag string) (PeerHandle, bool)
	ChannelPeers(self PeerHandle) []PeerHandle
	Latch(peer PeerHandle, addr *net.UDPAddr)
	// IsFloorHolder reports whether peer currently holds its channel's
	// floor. RTP fan-out only happens from the holder; everyone else's
	// packets are decrypted (to keep SSRC tracking and NAT latching
	// alive) but dropped before reaching the rest of the channel.
	IsFloorHolder(peer PeerHandle) bool
}

// Relay owns the single UDP socket that carries STUN, DTLS and SRTP for
// every peer, demultiplexed by RFC 7983 first byte. STUN starts
// latching, DTLS datagrams are handed to whichever handshake session is
// listening for that address, and SRTP/SRTCP are decrypted. Only RTP from
// the channel's floor holder is fanned out to the rest of the channel,
// re-encrypted per destination; SRTCP is never forwarded.
type Relay struct {
	socket   *net.UDPConn
	peers    PeerSource
	cert     *ServerCert
	sessions *SessionMap
	log      zerolog.Logger
	nowMs    func() int64
}

func NewRelay(socket *net.UDPConn, peers PeerSource, cert *ServerCert, log zerolog.Logger, nowMs func() int64) *Relay {
	return &Relay{
		socket:   socket,
		peers:    peers,
		cert:     cert,
		sessions: NewSessionMap(),
		log:      log,
		nowMs:    nowMs,
	}
}

// HandshakesInFlight reports how many DTLS sessions this relay's session
// map holds: handshakes in progress plus established connections whose
// goroutine is still reading.
func (r *Relay) HandshakesInFlight() int { return r.sessions.Count() }

// Serve blocks, reading datagrams until the socket is closed.
func (r *Relay) Serve(handshakeTimeoutMs int64) error {
	buf := make([]byte, udpRecvBufferSize)
	for {
		n, srcAddr, err := r.socket.ReadFromUDP(buf)
		if err != nil {
			return err
		}
		r.handle(buf[:n], srcAddr, handshakeTimeoutMs)
	}
}

func (r *Relay) handle(packet []byte, src *net.UDPAddr, handshakeTimeoutMs int64) {
	switch ClassifyPacket(packet) {
	case ClassSTUN:
		r.handleSTUN(packet, src)
	case ClassDTLS:
		r.handleDTLS(packet, src, handshakeTimeoutMs)
	case ClassRTP, ClassRTCP:
		r.handleSRTP(packet, src, ClassifyPacket(packet) == ClassRTCP)
	default:
		r.log.Debug().Str("module", "relay").Str("addr", src.String()).Msg("dropping unclassified packet")
	}
}

func (r *Relay) handleSTUN(packet []byte, src *net.UDPAddr) {
	msg := &stun.Message{Raw: append([]byte{}, packet...)}
	if err := msg.Decode(); err != nil {
		r.log.Debug().Str("module", "relay").Err(err).Msg("malformed stun packet")
		return
	}
	if !IsBindingRequest(msg) {
		return
	}
	ufrag, ok := ParseUsername(msg)
	if !ok {
		return
	}
	peer, ok := r.peers.ByUfrag(ufrag)
	if !ok {
		r.log.Debug().Str("module", "relay").Str("ufrag", ufrag).Msg("binding request for unknown peer")
		return
	}
	if !VerifyBindingRequest(msg, ufrag, peer.PeerIcePassword()) {
		r.log.Warn().Str("module", "relay").Str("ufrag", ufrag).Msg("stun message-integrity check failed")
		return
	}
	peer.LatchAddr(src, r.nowMs())
	r.peers.Latch(peer, src)

	resp, err := BuildBindingSuccess(msg, src, peer.PeerIcePassword())
	if err != nil {
		r.log.Warn().Str("module", "relay").Err(err).Msg("build binding success failed")
		return
	}
	if _, err := r.socket.WriteToUDP(resp.Raw, src); err != nil {
		r.log.Warn().Str("module", "relay").Err(err).Msg("stun response send failed")
	}
}

func (r *Relay) handleDTLS(packet []byte, src *net.UDPAddr, handshakeTimeoutMs int64) {
	if r.sessions.Inject(src, packet) {
		return
	}
	peer, ok := r.peers.ByAddr(src)
	if !ok {
		r.log.Debug().Str("module", "relay").Str("addr", src.String()).Msg("dtls from unlatched address")
		return
	}
	StartHandshake(
		r.socket, src, r.cert, r.sessions,
		peer.InboundCtx(), peer.OutboundCtx(),
		time.Duration(handshakeTimeoutMs)*time.Millisecond, peer.PeerUfrag(), r.log,
		func(err error) {
			if err != nil {
				r.log.Warn().Str("module", "relay").Str("ufrag", peer.PeerUfrag()).Err(err).Msg("dtls handshake ended")
			}
		},
	)
	r.sessions.Inject(src, packet)
}

// recordRTCPSSRC decodes the compound packet just far enough to learn the
// sender's SSRC; parse failures are swallowed since the decrypted RTCP is
// used for nothing else.
func (r *Relay) recordRTCPSSRC(sender PeerHandle, plaintext []byte) {
	packets, err := rtcp.Unmarshal(plaintext)
	if err != nil {
		return
	}
	for _, p := range packets {
		switch sr := p.(type) {
		case *rtcp.SenderReport:
			sender.RecordSSRC(sr.SSRC)
		case *rtcp.ReceiverReport:
			sender.RecordSSRC(sr.SSRC)
		}
	}
}

func (r *Relay) handleSRTP(packet []byte, src *net.UDPAddr, isRTCP bool) {
	sender, ok := r.peers.ByAddr(src)
	if !ok {
		r.log.Debug().Str("module", "relay").Str("addr", src.String()).Msg("srtp from unlatched address")
		return
	}
	sender.LatchAddr(src, r.nowMs())

	var plaintext []byte
	var err error
	if isRTCP {
		plaintext, err = sender.InboundCtx().DecryptRTCP(nil, packet)
	} else {
		plaintext, err = sender.InboundCtx().DecryptRTP(nil, packet)
	}
	if err != nil {
		if err != ErrKeyNotInstalled {
			r.log.Debug().Str("module", "relay").Str("ufrag", sender.PeerUfrag()).Err(err).Msg("decrypt failed")
		}
		return
	}

	if isRTCP {
		// RTCP is decrypted only to learn the sender's SSRC; it is
		// never forwarded, so there is nothing left to fan out.
		r.recordRTCPSSRC(sender, plaintext)
		return
	}

	var pkt rtp.Packet
	if err := pkt.Unmarshal(plaintext); err == nil {
		sender.RecordSSRC(pkt.SSRC)
	}

	if !r.peers.IsFloorHolder(sender) {
		return
	}

	for _, target := range r.peers.ChannelPeers(sender) {
		addr := target.Addr()
		if addr == nil {
			continue
		}
		ciphertext, err := target.OutboundCtx().EncryptRTP(nil, plaintext)
		if err != nil {
			if err != ErrKeyNotInstalled {
				r.log.Debug().Str("module", "relay").Str("ufrag", target.PeerUfrag()).Err(err).Msg("encrypt failed")
			}
			continue
		}
		if _, err := r.socket.WriteToUDP(ciphertext, addr); err != nil {
			r.log.Warn().Str("module", "relay").Str("ufrag", target.PeerUfrag()).Err(err).Msg("relay send failed")
		}
	}
}
