package core

import (
	"time"

	"github.com/floorwave/relay/internal/domain"
)

// FloorEventKind classifies a state-machine outcome the signaling layer
// must turn into wire frames and dispatch. Core never serializes or
// sends anything itself — it only ever mutates domain.FloorControl
// under its channel's lock and returns what happened.
type FloorEventKind int

const (
	// FloorGranted: send GRANTED to UserID only.
	FloorGranted FloorEventKind = iota
	// FloorTaken: broadcast TAKEN to the channel, excluding UserID.
	FloorTaken
	// FloorRevoked: send REVOKE to OldHolder only; Cause explains why.
	FloorRevoked
	// FloorIdle: broadcast IDLE to the whole channel.
	FloorIdle
	// FloorQueued: send QUEUE_POS_INFO to UserID only.
	FloorQueued
	// FloorPong: send PONG to UserID only.
	FloorPong
)

type FloorEvent struct {
	Kind          FloorEventKind
	ChannelID     domain.ChannelID
	UserID        domain.UserID
	OldHolder     domain.UserID
	Priority      uint8
	Indicator     domain.Indicator
	Cause         string
	QueuePosition int
	QueueSize     int
}

// FloorManager runs the MBCP state machine for every channel in a
// registry. Every exported method performs its whole decision under
// the channel's FloorMu and returns the events to dispatch once the
// caller has released it.
type FloorManager struct {
	channels    *ChannelRegistry
	maxTaken    time.Duration
	pingTimeout time.Duration
}

func NewFloorManager(channels *ChannelRegistry, maxTaken, pingTimeout time.Duration) *FloorManager {
	return &FloorManager{channels: channels, maxTaken: maxTaken, pingTimeout: pingTimeout}
}

// decideNext grants the next queued request or clears the floor to
// idle. Caller already holds ch.FloorMu.
func decideNext(ch *domain.Channel, now time.Time) []FloorEvent {
	if next, ok := ch.Floor.DequeueNext(); ok {
		ch.Floor.GrantLocked(next.UserID, next.Priority, next.Indicator, now)
		return []FloorEvent{
			{Kind: FloorGranted, ChannelID: ch.ID, UserID: next.UserID, Priority: next.Priority, Indicator: next.Indicator},
			{Kind: FloorTaken, ChannelID: ch.ID, UserID: next.UserID, Indicator: next.Indicator},
		}
	}
	ch.Floor.ClearLocked()
	return []FloorEvent{{Kind: FloorIdle, ChannelID: ch.ID}}
}

// Request handles FLOOR_REQUEST: grant immediately on an idle floor,
// preempt a lower-priority holder, or enqueue behind an equal/higher one.
func (m *FloorManager) Request(ch *domain.Channel, user domain.UserID, priority uint8, indicator domain.Indicator, now time.Time) []FloorEvent {
	ch.FloorMu.Lock()
	defer ch.FloorMu.Unlock()

	switch ch.Floor.State {
	case domain.FloorIdle:
		ch.Floor.GrantLocked(user, priority, indicator, now)
		return []FloorEvent{
			{Kind: FloorGranted, ChannelID: ch.ID, UserID: user, Priority: priority, Indicator: indicator},
			{Kind: FloorTaken, ChannelID: ch.ID, UserID: user, Indicator: indicator},
		}
	case domain.FloorTaken:
		if user == ch.Floor.Holder {
			// Re-request from the current holder is idempotent: they
			// already have the floor, so grant without touching the
			// queue or rebroadcasting TAKEN.
			return []FloorEvent{{Kind: FloorGranted, ChannelID: ch.ID, UserID: user, Priority: priority, Indicator: indicator}}
		}
		if ch.Floor.CanPreempt(priority, indicator) {
			oldHolder := ch.Floor.Holder
			ch.Floor.RemoveFromQueue(user)
			ch.Floor.GrantLocked(user, priority, indicator, now)
			return []FloorEvent{
				{Kind: FloorRevoked, ChannelID: ch.ID, OldHolder: oldHolder, Cause: "preempted"},
				{Kind: FloorGranted, ChannelID: ch.ID, UserID: user, Priority: priority, Indicator: indicator},
				{Kind: FloorTaken, ChannelID: ch.ID, UserID: user, Indicator: indicator},
			}
		}
		ch.Floor.Enqueue(user, priority, indicator, now)
		return []FloorEvent{{
			Kind:          FloorQueued,
			ChannelID:     ch.ID,
			UserID:        user,
			QueuePosition: ch.Floor.QueuePosition(user),
			QueueSize:     len(ch.Floor.Queue),
		}}
	}
	return nil
}

// Release handles FLOOR_RELEASE. A release from a non-holder doesn't
// touch the floor itself, but still drops the releaser from the wait
// queue if they were sitting in it.
func (m *FloorManager) Release(ch *domain.Channel, user domain.UserID, now time.Time) []FloorEvent {
	ch.FloorMu.Lock()
	defer ch.FloorMu.Unlock()
	if ch.Floor.State != domain.FloorTaken || ch.Floor.Holder != user {
		ch.Floor.RemoveFromQueue(user)
		return nil
	}
	return decideNext(ch, now)
}

// Ping handles FLOOR_PING: refresh the holder's liveness clock and
// produce a PONG back to them.
func (m *FloorManager) Ping(ch *domain.Channel, user domain.UserID, now time.Time) []FloorEvent {
	ch.FloorMu.Lock()
	defer ch.FloorMu.Unlock()
	if ch.Floor.State != domain.FloorTaken || ch.Floor.Holder != user {
		return nil
	}
	ch.Floor.LastPingAt = now
	return []FloorEvent{{Kind: FloorPong, ChannelID: ch.ID, UserID: user}}
}

// CheckTimeouts scans every channel for a holder that has exceeded the
// max-taken duration or gone silent past the ping timeout, revoking and
// advancing the queue as needed. Called periodically by the reaper.
func (m *FloorManager) CheckTimeouts(now time.Time) []FloorEvent {
	var events []FloorEvent
	for _, ch := range m.channels.All() {
		ch.FloorMu.Lock()
		switch {
		case ch.Floor.State != domain.FloorTaken:
		case ch.Floor.IsMaxTakenExceeded(now, m.maxTaken):
			events = append(events, FloorEvent{Kind: FloorRevoked, ChannelID: ch.ID, OldHolder: ch.Floor.Holder, Cause: "max_duration"})
			events = append(events, decideNext(ch, now)...)
		case ch.Floor.IsPingTimeout(now, m.pingTimeout):
			events = append(events, FloorEvent{Kind: FloorRevoked, ChannelID: ch.ID, OldHolder: ch.Floor.Holder, Cause: "ping_timeout"})
			events = append(events, decideNext(ch, now)...)
		}
		ch.FloorMu.Unlock()
	}
	return events
}

// OnDisconnect handles WS teardown: drop the user from the queue, and
// if they held the floor, revoke and advance to the next holder.
func (m *FloorManager) OnDisconnect(ch *domain.Channel, user domain.UserID, now time.Time) []FloorEvent {
	ch.FloorMu.Lock()
	defer ch.FloorMu.Unlock()
	ch.Floor.RemoveFromQueue(user)
	if ch.Floor.Holder != user {
		return nil
	}
	return decideNext(ch, now)
}
