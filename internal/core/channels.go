package core

import (
	"sync"
	"time"

	"github.com/floorwave/relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// ChannelRegistry is the set of live channels. Create is idempotent —
// a second CHANNEL_CREATE for an existing id returns the original
// channel rather than erroring, mirroring the original prototype's
// entry-or-insert semantics.
type ChannelRegistry struct {
	mu  sync.RWMutex
	byID map[domain.ChannelID]*domain.Channel
}

func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{byID: make(map[domain.ChannelID]*domain.Channel)}
}

func (r *ChannelRegistry) Create(id domain.ChannelID, freq, name string, capacity int, now time.Time) *domain.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, exists := r.byID[id]; exists {
		return ch
	}
	ch := domain.NewChannel(id, freq, name, capacity, now)
	r.byID[id] = ch
	log.Info().Str("module", "core.channels").Str("channel_id", string(id)).Msg("created")
	return ch
}

// Delete removes a channel unconditionally; the spec leaves channel
// deletion fully permissive with no ownership check.
func (r *ChannelRegistry) Delete(id domain.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[id]; !exists {
		return false
	}
	delete(r.byID, id)
	log.Info().Str("module", "core.channels").Str("channel_id", string(id)).Msg("deleted")
	return true
}

func (r *ChannelRegistry) Get(id domain.ChannelID) (*domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.byID[id]
	return ch, ok
}

func (r *ChannelRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *ChannelRegistry) All() []*domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Channel, 0, len(r.byID))
	for _, ch := range r.byID {
		out = append(out, ch)
	}
	return out
}

// Join adds user to the channel's member set, enforcing capacity and
// single-membership.
func Join(ch *domain.Channel, user domain.UserID) error {
	ch.MembersMu.Lock()
	defer ch.MembersMu.Unlock()
	if len(ch.Members) >= ch.Capacity {
		return ErrChannelFull(ch.ID)
	}
	if _, exists := ch.Members[user]; exists {
		return ErrAlreadyInChannel(ch.ID)
	}
	ch.Members[user] = struct{}{}
	return nil
}

// Leave removes user from the channel's member set. It is a no-op if
// the user was never a member.
func Leave(ch *domain.Channel, user domain.UserID) {
	ch.MembersMu.Lock()
	defer ch.MembersMu.Unlock()
	delete(ch.Members, user)
}

// Members returns a snapshot copy of the channel's member set.
func Members(ch *domain.Channel) map[domain.UserID]struct{} {
	ch.MembersMu.Lock()
	defer ch.MembersMu.Unlock()
	out := make(map[domain.UserID]struct{}, len(ch.Members))
	for id := range ch.Members {
		out[id] = struct{}{}
	}
	return out
}

func MemberCount(ch *domain.Channel) int {
	ch.MembersMu.Lock()
	defer ch.MembersMu.Unlock()
	return len(ch.Members)
}

// CountFloorTaken reports how many channels currently have a floor
// holder, used by the admin/trace surface.
func (r *ChannelRegistry) CountFloorTaken() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, ch := range r.byID {
		ch.FloorMu.Lock()
		if ch.Floor.State == domain.FloorTaken {
			n++
		}
		ch.FloorMu.Unlock()
	}
	return n
}
