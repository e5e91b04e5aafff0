// Package media terminates the WebRTC media plane by hand: ICE-Lite STUN,
// a passive DTLS server and SRTP/SRTCP protection, without a full ICE
// agent or a PeerConnection. One concern per file.
package media

import (
	"errors"
	"sync"

	"github.com/pion/srtp/v3"
)

// ErrKeyNotInstalled is returned by EncryptRTP/DecryptRTP/EncryptRTCP/
// DecryptRTCP before the DTLS handshake has installed keying material.
var ErrKeyNotInstalled = errors.New("media: srtp keys not installed")

// SRTPContext is one direction (inbound or outbound) of a single peer's
// media crypto state. A peer has exactly one of each, shared by every
// SSRC it carries — BUNDLE means audio, video and data all ride the
// same DTLS-SRTP keying.
type SRTPContext struct {
	mu  sync.Mutex
	ctx *srtp.Context
}

func NewSRTPContext() *SRTPContext {
	return &SRTPContext{}
}

// Install derives the protection context from key/salt material sliced
// out of the DTLS exported keying material. It is called exactly once,
// from the DTLS handshake goroutine, before any relay traffic for the
// peer can be processed.
func (s *SRTPContext) Install(key, salt []byte) error {
	ctx, err := srtp.CreateContext(key, salt, srtp.ProtectionProfileAes128CmHmacSha1_80)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	return nil
}

func (s *SRTPContext) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx != nil
}

// DecryptRTP turns a ciphertext SRTP packet into plaintext RTP, writing
// into dst if it has enough capacity.
func (s *SRTPContext) DecryptRTP(dst, ciphertext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil, ErrKeyNotInstalled
	}
	return s.ctx.DecryptRTP(dst, ciphertext, nil)
}

// EncryptRTP turns a plaintext RTP packet into ciphertext SRTP.
func (s *SRTPContext) EncryptRTP(dst, plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil, ErrKeyNotInstalled
	}
	return s.ctx.EncryptRTP(dst, plaintext, nil)
}

func (s *SRTPContext) DecryptRTCP(dst, ciphertext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil, ErrKeyNotInstalled
	}
	return s.ctx.DecryptRTCP(dst, ciphertext, nil)
}

func (s *SRTPContext) EncryptRTCP(dst, plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil, ErrKeyNotInstalled
	}
	return s.ctx.EncryptRTCP(dst, plaintext, nil)
}
