package media

import (
	"net"

	"github.com/pion/stun/v3"
)

// BuildBindingSuccess constructs a STUN Binding Success Response for an
// ICE-Lite server: XOR-MAPPED-ADDRESS set to the observed source, signed
// with short-term credentials (the peer's ICE password) and FINGERPRINT
// per RFC 5389. There is no candidate pairing or consent freshness here —
// ICE-Lite only ever answers, never probes.
func BuildBindingSuccess(req *stun.Message, srcAddr *net.UDPAddr, icePassword string) (*stun.Message, error) {
	msg, err := stun.Build(
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.BindingSuccess,
		&stun.XORMappedAddress{IP: srcAddr.IP, Port: srcAddr.Port},
		stun.NewShortTermIntegrity(icePassword),
		stun.Fingerprint,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// VerifyBindingRequest checks USERNAME and MESSAGE-INTEGRITY on an
// incoming Binding Request against the expected ufrag/password pair,
// per RFC 5389 short-term credentials. Only the server half of the
// colon-joined USERNAME is compared with expectedUfrag.
func VerifyBindingRequest(req *stun.Message, expectedUfrag, icePassword string) bool {
	ufrag, ok := ParseUsername(req)
	if !ok || ufrag != expectedUfrag {
		return false
	}
	return stun.NewShortTermIntegrity(icePassword).Check(req) == nil
}

// ParseUsername extracts the colon-joined ufrag from a STUN USERNAME
// attribute. Browsers send "<server-ufrag>:<client-ufrag>"; only the
// server half is used for peer lookup.
func ParseUsername(req *stun.Message) (string, bool) {
	var username stun.Username
	if err := username.GetFrom(req); err != nil {
		return "", false
	}
	full := string(username)
	for i, c := range full {
		if c == ':' {
			return full[:i], true
		}
	}
	return full, true
}

// IsBindingRequest reports whether msg is a STUN Binding Request, as
// opposed to an indication, success or error response.
func IsBindingRequest(msg *stun.Message) bool {
	return msg.Type == stun.BindingRequest
}
