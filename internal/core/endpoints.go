package core

import (
	"net"
	"sync"

	"github.com/floorwave/relay/internal/domain"
	"github.com/floorwave/relay/internal/media"
	"github.com/rs/zerolog/log"
)

// EndpointRegistry dual-indexes media endpoints by their immutable
// ufrag (the STUN cold-path identifier) and by their latched address
// (the UDP hot-path cache). It implements media.PeerSource directly so
// the relay never has to know about domain.Endpoint.
type EndpointRegistry struct {
	mu       sync.RWMutex
	byUfrag  map[domain.Ufrag]*domain.Endpoint
	byAddr   map[string]*domain.Endpoint
	channels *ChannelRegistry
}

func NewEndpointRegistry(channels *ChannelRegistry) *EndpointRegistry {
	return &EndpointRegistry{
		byUfrag:  make(map[domain.Ufrag]*domain.Endpoint),
		byAddr:   make(map[string]*domain.Endpoint),
		channels: channels,
	}
}

// Insert registers an endpoint at SDP-answer time, before any STUN
// binding has latched an address for it.
func (r *EndpointRegistry) Insert(ep *domain.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUfrag[ep.Ufrag] = ep
	log.Info().Str("module", "core.endpoints").Str("ufrag", string(ep.Ufrag)).Str("user_id", string(ep.UserID)).Msg("endpoint inserted")
}

func (r *EndpointRegistry) Remove(ufrag domain.Ufrag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.byUfrag[ufrag]
	if !ok {
		return
	}
	delete(r.byUfrag, ufrag)
	if addr := ep.Addr(); addr != nil {
		delete(r.byAddr, addr.String())
	}
	log.Info().Str("module", "core.endpoints").Str("ufrag", string(ufrag)).Msg("endpoint removed")
}

func (r *EndpointRegistry) GetByUfrag(ufrag domain.Ufrag) (*domain.Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.byUfrag[ufrag]
	return ep, ok
}

func (r *EndpointRegistry) GetByAddr(addr *net.UDPAddr) (*domain.Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.byAddr[addr.String()]
	return ep, ok
}

func (r *EndpointRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUfrag)
}

func (r *EndpointRegistry) All() []*domain.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Endpoint, 0, len(r.byUfrag))
	for _, ep := range r.byUfrag {
		out = append(out, ep)
	}
	return out
}

// FindStale returns ufrags whose last-seen clock exceeds timeoutMs.
func (r *EndpointRegistry) FindStale(nowMs, timeoutMs int64) []domain.Ufrag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stale []domain.Ufrag
	for ufrag, ep := range r.byUfrag {
		if nowMs-ep.LastSeenMs() >= timeoutMs {
			stale = append(stale, ufrag)
		}
	}
	return stale
}

// ChannelEndpoints returns every endpoint currently joined to channelID.
// The relay's fan-out does not use it; it enumerates targets through
// ChannelPeers.
func (r *EndpointRegistry) ChannelEndpoints(channelID domain.ChannelID) []*domain.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Endpoint
	for _, ep := range r.byUfrag {
		if ep.ChannelID == channelID {
			out = append(out, ep)
		}
	}
	return out
}

// --- media.PeerSource ---

func (r *EndpointRegistry) ByAddr(addr *net.UDPAddr) (media.PeerHandle, bool) {
	ep, ok := r.GetByAddr(addr)
	if !ok {
		return nil, false
	}
	return ep, true
}

// Latch records addr against ufrag's by-address cache. Called from the
// relay's STUN cold path after a binding request authenticates; any
// older address entry for the same endpoint is dropped in the same
// critical section (symmetric latching across NAT rebinding).
func (r *EndpointRegistry) Latch(peer media.PeerHandle, addr *net.UDPAddr) {
	ep, ok := r.GetByUfrag(domain.Ufrag(peer.PeerUfrag()))
	if !ok {
		return
	}
	key := addr.String()
	r.mu.Lock()
	for k, other := range r.byAddr {
		if other == ep && k != key {
			delete(r.byAddr, k)
		}
	}
	r.byAddr[key] = ep
	r.mu.Unlock()
}

func (r *EndpointRegistry) ByUfrag(ufrag string) (media.PeerHandle, bool) {
	ep, ok := r.GetByUfrag(domain.Ufrag(ufrag))
	if !ok {
		return nil, false
	}
	return ep, true
}

// ChannelPeers returns every endpoint sharing self's channel except
// self, the relay's fan-out target list for one inbound packet.
func (r *EndpointRegistry) ChannelPeers(self media.PeerHandle) []media.PeerHandle {
	ep, ok := r.GetByUfrag(domain.Ufrag(self.PeerUfrag()))
	if !ok {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []media.PeerHandle
	for _, other := range r.byUfrag {
		if other.ChannelID == ep.ChannelID && other.Ufrag != ep.Ufrag {
			out = append(out, other)
		}
	}
	return out
}

// IsFloorHolder reports whether peer currently holds the floor of its
// channel. The relay consults this before fanning out an RTP packet:
// spec's headline invariant is that only the floor holder's audio
// reaches the rest of the channel.
func (r *EndpointRegistry) IsFloorHolder(peer media.PeerHandle) bool {
	ep, ok := r.GetByUfrag(domain.Ufrag(peer.PeerUfrag()))
	if !ok {
		return false
	}
	ch, ok := r.channels.Get(ep.ChannelID)
	if !ok {
		return false
	}
	ch.FloorMu.Lock()
	defer ch.FloorMu.Unlock()
	return ch.Floor.State == domain.FloorTaken && ch.Floor.Holder == ep.UserID
}
