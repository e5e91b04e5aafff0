// Package domain contains plain data entities shared across the core
// registries. No locking, no transport handles: cross-references between
// users, channels and endpoints go through identifier strings only, looked
// up via the owning registry, so the object graph stays acyclic.
package domain

import "sync/atomic"

// User is an identity admitted by IDENTIFY. lastSeenMs is touched on every
// inbound signaling frame and read by the reaper to find stale sessions; it
// is a plain atomic store/load so Touch stays lock-free on the hot path.
type User struct {
	ID         UserID
	SessionID  string
	Priority   uint8
	lastSeenMs atomic.Int64
}

// NewUser constructs a User with its liveness clock set to now. sessionID
// identifies this particular IDENTIFY, distinct from the caller-chosen
// user_id, so a user reconnecting after a drop gets a fresh one.
func NewUser(id UserID, sessionID string, priority uint8, nowMs int64) *User {
	u := &User{ID: id, SessionID: sessionID, Priority: priority}
	u.lastSeenMs.Store(nowMs)
	return u
}

func (u *User) Touch(nowMs int64) { u.lastSeenMs.Store(nowMs) }

func (u *User) LastSeenMs() int64 { return u.lastSeenMs.Load() }
