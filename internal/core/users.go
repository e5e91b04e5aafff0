package core

import (
	"sync"

	"github.com/floorwave/relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Sender is the registry's view of a user's outbound transport: push a
// pre-serialized frame without blocking. Implemented by the signaling
// package's per-connection WS wrapper.
type Sender interface {
	TrySend(frame []byte) error
}

type userEntry struct {
	user   *domain.User
	sender Sender
}

// UserRegistry is the global IDENTIFY table. A user_id is exclusive: a
// second IDENTIFY for a live id fails rather than silently overwriting
// the first session, unlike the permissive original prototype.
type UserRegistry struct {
	mu   sync.RWMutex
	byID map[domain.UserID]*userEntry
}

func NewUserRegistry() *UserRegistry {
	return &UserRegistry{byID: make(map[domain.UserID]*userEntry)}
}

func (r *UserRegistry) Register(id domain.UserID, sessionID string, priority uint8, sender Sender, nowMs int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[id]; exists {
		return nil, ErrUserAlreadyIdentified(id)
	}
	u := domain.NewUser(id, sessionID, priority, nowMs)
	r.byID[id] = &userEntry{user: u, sender: sender}
	log.Info().Str("module", "core.users").Str("user_id", string(id)).Msg("registered")
	return u, nil
}

func (r *UserRegistry) Unregister(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	log.Info().Str("module", "core.users").Str("user_id", string(id)).Msg("unregistered")
}

func (r *UserRegistry) Get(id domain.UserID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.user, true
}

func (r *UserRegistry) Touch(id domain.UserID, nowMs int64) {
	r.mu.RLock()
	e, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		e.user.Touch(nowMs)
	}
}

// SendTo delivers a frame to exactly one user, if still registered.
func (r *UserRegistry) SendTo(id domain.UserID, frame []byte) {
	r.mu.RLock()
	e, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := e.sender.TrySend(frame); err != nil {
		log.Warn().Str("module", "core.users").Str("user_id", string(id)).Err(err).Msg("send failed")
	}
}

// BroadcastTo delivers a frame to every id in the set except exclude.
func (r *UserRegistry) BroadcastTo(ids map[domain.UserID]struct{}, frame []byte, exclude domain.UserID) {
	r.mu.RLock()
	targets := make([]*userEntry, 0, len(ids))
	for id := range ids {
		if id == exclude {
			continue
		}
		if e, ok := r.byID[id]; ok {
			targets = append(targets, e)
		}
	}
	r.mu.RUnlock()

	for _, e := range targets {
		if err := e.sender.TrySend(frame); err != nil {
			log.Warn().Str("module", "core.users").Str("user_id", string(e.user.ID)).Err(err).Msg("broadcast send failed")
		}
	}
}

// FindStale returns ids whose last-seen clock exceeds timeoutMs.
func (r *UserRegistry) FindStale(nowMs, timeoutMs int64) []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stale []domain.UserID
	for id, e := range r.byID {
		if nowMs-e.user.LastSeenMs() >= timeoutMs {
			stale = append(stale, id)
		}
	}
	return stale
}

func (r *UserRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *UserRegistry) All() []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e.user)
	}
	return out
}
