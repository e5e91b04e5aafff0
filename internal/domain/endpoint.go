package domain

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/floorwave/relay/internal/media"
)

// TrackKind identifies the media type of a BUNDLEd SSRC.
type TrackKind int

const (
	TrackAudio TrackKind = iota
	TrackVideo
	TrackData
)

// Track is SSRC metadata, not a routing key: all tracks belonging to one
// peer share the endpoint's single inbound/outbound SRTP context.
type Track struct {
	SSRC uint32
	Kind TrackKind
}

// Endpoint is one peer's media-plane state: the ufrag is its immutable
// primary key, the address is a hot-path cache latched by the first
// STUN binding that carries it, and the two SRTP contexts are installed
// once the DTLS handshake completes.
type Endpoint struct {
	Ufrag       Ufrag
	IcePassword string
	UserID      UserID
	ChannelID   ChannelID

	addr atomic.Pointer[net.UDPAddr]

	tracksMu sync.RWMutex
	tracks   []Track

	Inbound  *media.SRTPContext
	Outbound *media.SRTPContext

	lastSeenMs atomic.Int64
}

// NewEndpoint allocates an endpoint with empty SRTP contexts; they are
// installed once the DTLS handshake derives keying material.
func NewEndpoint(ufrag Ufrag, icePwd string, user UserID, channel ChannelID, nowMs int64) *Endpoint {
	ep := &Endpoint{
		Ufrag:       ufrag,
		IcePassword: icePwd,
		UserID:      user,
		ChannelID:   channel,
		Inbound:     media.NewSRTPContext(),
		Outbound:    media.NewSRTPContext(),
	}
	ep.lastSeenMs.Store(nowMs)
	return ep
}

func (e *Endpoint) Touch(nowMs int64) { e.lastSeenMs.Store(nowMs) }

func (e *Endpoint) LastSeenMs() int64 { return e.lastSeenMs.Load() }

// Latch records the source address a STUN binding or RTP packet arrived
// from. Symmetric latching: once set, the relay sends back to exactly
// this address regardless of what the SDP offer advertised.
func (e *Endpoint) Latch(addr *net.UDPAddr, nowMs int64) {
	e.addr.Store(addr)
	e.Touch(nowMs)
}

func (e *Endpoint) Addr() *net.UDPAddr { return e.addr.Load() }

// AddTrack registers an SSRC once; duplicate SSRCs (renegotiation,
// retransmitted offers) are no-ops.
func (e *Endpoint) AddTrack(ssrc uint32, kind TrackKind) {
	e.tracksMu.Lock()
	defer e.tracksMu.Unlock()
	for _, t := range e.tracks {
		if t.SSRC == ssrc {
			return
		}
	}
	e.tracks = append(e.tracks, Track{SSRC: ssrc, Kind: kind})
}

// The accessors below exist so *Endpoint structurally satisfies
// media.PeerHandle without internal/media importing this package.
func (e *Endpoint) Key() string                               { return string(e.Ufrag) }
func (e *Endpoint) PeerUfrag() string                         { return string(e.Ufrag) }
func (e *Endpoint) PeerIcePassword() string                   { return e.IcePassword }
func (e *Endpoint) PeerUserID() string                        { return string(e.UserID) }
func (e *Endpoint) InboundCtx() *media.SRTPContext             { return e.Inbound }
func (e *Endpoint) OutboundCtx() *media.SRTPContext            { return e.Outbound }
func (e *Endpoint) LatchAddr(addr *net.UDPAddr, nowMs int64)   { e.Latch(addr, nowMs) }

// RecordSSRC satisfies media.PeerHandle. The demux layer has no notion of
// track kind, so SSRCs it observes are recorded as audio; a future
// BUNDLE-aware signaling layer that tags SSRC-to-kind in the SDP answer
// could call AddTrack directly with the real kind instead.
func (e *Endpoint) RecordSSRC(ssrc uint32) { e.AddTrack(ssrc, TrackAudio) }

func (e *Endpoint) Tracks() []Track {
	e.tracksMu.RLock()
	defer e.tracksMu.RUnlock()
	out := make([]Track, len(e.tracks))
	copy(out, e.tracks)
	return out
}
