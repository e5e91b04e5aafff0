package media

// PacketClass is the RFC 7983 first-byte classification of a datagram
// arriving on the single shared UDP port that carries STUN, DTLS and
// SRTP/SRTCP all multiplexed together.
type PacketClass int

const (
	ClassUnknown PacketClass = iota
	ClassSTUN
	ClassDTLS
	ClassRTP
	ClassRTCP
)

// ClassifyPacket implements the RFC 7983 §7 decision tree on the first
// byte of a datagram. STUN covers the full 0x00-0x03 range (message
// type's two high bits are always 0b00).
func ClassifyPacket(b []byte) PacketClass {
	if len(b) == 0 {
		return ClassUnknown
	}
	first := b[0]
	switch {
	case first <= 3:
		return ClassSTUN
	case first >= 20 && first <= 63:
		return ClassDTLS
	case first >= 128 && first <= 191:
		if len(b) > 1 && isRTCPPayloadType(b[1]) {
			return ClassRTCP
		}
		return ClassRTP
	default:
		return ClassUnknown
	}
}

// isRTCPPayloadType reports whether the second byte of a 128-191
// class packet is an RTCP payload type (>= 200 / 0xC8), the standard
// heuristic for RTP/RTCP muxing on rtcp-mux connections.
func isRTCPPayloadType(second byte) bool {
	return second >= 200
}
