package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPacket(t *testing.T) {
	cases := []struct {
		name string
		b    []byte
		want PacketClass
	}{
		{"empty", []byte{}, ClassUnknown},
		{"stun binding request", []byte{0x00, 0x01}, ClassSTUN},
		{"stun indication", []byte{0x01, 0x01}, ClassSTUN},
		{"stun range upper-1", []byte{0x02, 0x01}, ClassSTUN},
		{"stun range upper", []byte{0x03, 0x01}, ClassSTUN},
		{"dtls handshake", []byte{22, 0xfe, 0xfd}, ClassDTLS},
		{"dtls boundary low", []byte{20}, ClassDTLS},
		{"dtls boundary high", []byte{63}, ClassDTLS},
		{"rtp", []byte{0x80, 0x6f}, ClassRTP},
		{"rtp just below rtcp threshold", []byte{0x80, 199}, ClassRTP},
		{"rtcp via second byte", []byte{0x80, 0xc8}, ClassRTCP},
		{"rtcp at threshold boundary", []byte{0x80, 200}, ClassRTCP},
		{"unknown high byte", []byte{250}, ClassUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyPacket(tc.b))
		})
	}
}
