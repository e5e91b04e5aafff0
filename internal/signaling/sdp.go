package signaling

import (
	"fmt"
	"strings"

	"github.com/pion/randutil"
	"github.com/pion/sdp/v3"
)

// SDPBuilder assembles ICE-Lite, passive-DTLS answers by mirroring the
// codec lines of whatever offer the browser sent and substituting the
// server's own ICE credentials, fingerprint and single host candidate.
// It never negotiates: the answer always accepts whatever the offer
// proposed for codecs, and always answers sendrecv whatever direction
// the offer proposed.
type SDPBuilder struct {
	AdvertiseIP string
	UDPPort     int
	Fingerprint string
}

// skipAttrKeys lists the per-media attribute keys for ICE, DTLS,
// direction, RTCP muxing and candidates — all written by the server
// itself and never mirrored from the offer.
var skipAttrKeys = map[string]bool{
	"ice-ufrag": true, "ice-pwd": true, "ice-options": true,
	"fingerprint": true, "setup": true, "candidate": true,
	"sendrecv": true, "sendonly": true, "recvonly": true, "inactive": true,
	"rtcp-mux": true, "rtcp-rsize": true, "end-of-candidates": true,
}

// Answer parses offerSDP and returns the server's answer along with the
// ICE ufrag/password it minted, which the caller must register in the
// endpoint registry as that peer's primary key.
func (b *SDPBuilder) Answer(offerSDP string) (answer, ufrag, pwd string, err error) {
	offer := &sdp.SessionDescription{}
	if err := offer.UnmarshalString(offerSDP); err != nil {
		return "", "", "", fmt.Errorf("sdp: parse offer: %w", err)
	}

	ufrag, err = randutil.GenerateCryptoRandomString(16, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	if err != nil {
		return "", "", "", fmt.Errorf("sdp: generate ufrag: %w", err)
	}
	pwd, err = randutil.GenerateCryptoRandomString(22, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	if err != nil {
		return "", "", "", fmt.Errorf("sdp: generate pwd: %w", err)
	}

	var sb strings.Builder
	var mids []string
	for _, m := range offer.MediaDescriptions {
		mids = append(mids, mediaMid(m))
	}

	sb.WriteString("v=0\r\n")
	fmt.Fprintf(&sb, "o=floorwave-relay %d %d IN IP4 %s\r\n", offer.Origin.SessionID, offer.Origin.SessionID, b.AdvertiseIP)
	sb.WriteString("s=-\r\n")
	sb.WriteString("t=0 0\r\n")
	fmt.Fprintf(&sb, "a=group:BUNDLE %s\r\n", strings.Join(mids, " "))
	sb.WriteString("a=ice-lite\r\n")

	for _, m := range offer.MediaDescriptions {
		fmt.Fprintf(&sb, "m=%s %d %s %s\r\n",
			m.MediaName.Media, b.UDPPort, strings.Join(m.MediaName.Protos, "/"), strings.Join(m.MediaName.Formats, " "))
		fmt.Fprintf(&sb, "c=IN IP4 %s\r\n", b.AdvertiseIP)
		fmt.Fprintf(&sb, "a=ice-ufrag:%s\r\n", ufrag)
		fmt.Fprintf(&sb, "a=ice-pwd:%s\r\n", pwd)
		fmt.Fprintf(&sb, "a=fingerprint:%s\r\n", b.Fingerprint)
		sb.WriteString("a=setup:passive\r\n")
		sb.WriteString("a=rtcp-mux\r\n")
		sb.WriteString("a=rtcp-rsize\r\n")
		// sendrecv unconditionally: some browsers never start DTLS on a
		// recvonly answer. Actual floor direction is enforced by the
		// application layer, not by the SDP.
		sb.WriteString("a=sendrecv\r\n")
		for _, a := range m.Attributes {
			if skipAttrKeys[a.Key] {
				continue
			}
			sb.WriteString(attrLine(a))
		}
		fmt.Fprintf(&sb, "a=candidate:1 1 udp 2113937151 %s %d typ host generation 0\r\n", b.AdvertiseIP, b.UDPPort)
		sb.WriteString("a=end-of-candidates\r\n")
	}

	return sb.String(), ufrag, pwd, nil
}

func mediaMid(m *sdp.MediaDescription) string {
	for _, a := range m.Attributes {
		if a.Key == "mid" {
			return a.Value
		}
	}
	return ""
}

func attrLine(a sdp.Attribute) string {
	if a.Value == "" {
		return fmt.Sprintf("a=%s\r\n", a.Key)
	}
	return fmt.Sprintf("a=%s:%s\r\n", a.Key, a.Value)
}
