package signaling

import (
	"time"

	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
)

func (c *Controller) handleFloorRequest(sess *Session, state *connState, env Envelope) error {
	if c.FloorLimiter != nil && !c.FloorLimiter.Allow(state.userID) {
		return core.ErrRateLimited()
	}
	p, err := decodePayload[floorRequestPayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	ch, ok := c.Channels.Get(domain.ChannelID(p.ChannelID))
	if !ok {
		return core.ErrChannelNotFound(domain.ChannelID(p.ChannelID))
	}
	if _, member := core.Members(ch)[state.userID]; !member {
		return core.ErrNotInChannel(ch.ID)
	}

	priority := c.Cfg.FloorPriorityDefault
	if p.Priority != nil {
		priority = *p.Priority
	}
	indicator := domain.IndicatorNormal
	if p.Indicator != nil {
		indicator = domain.Indicator(*p.Indicator)
	}

	events := c.Floors.Request(ch, state.userID, priority, indicator, time.Now())
	c.dispatchFloorEvents(ch, events)
	return nil
}

func (c *Controller) handleFloorRelease(sess *Session, state *connState, env Envelope) error {
	p, err := decodePayload[floorReleasePayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	ch, ok := c.Channels.Get(domain.ChannelID(p.ChannelID))
	if !ok {
		return core.ErrChannelNotFound(domain.ChannelID(p.ChannelID))
	}
	events := c.Floors.Release(ch, state.userID, time.Now())
	c.dispatchFloorEvents(ch, events)
	return nil
}

func (c *Controller) handleFloorPong(sess *Session, state *connState, env Envelope) error {
	p, err := decodePayload[floorPongPayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	ch, ok := c.Channels.Get(domain.ChannelID(p.ChannelID))
	if !ok {
		return core.ErrChannelNotFound(domain.ChannelID(p.ChannelID))
	}
	events := c.Floors.Ping(ch, state.userID, time.Now())
	c.dispatchFloorEvents(ch, events)
	return nil
}

// dispatchFloorEvents turns core.FloorEvent values into wire frames and
// routes each one per its kind's targeting rule. The reaper calls this
// with exactly the same translation after FloorManager.CheckTimeouts,
// so the live opcode handlers and the timeout sweep can never drift.
func (c *Controller) dispatchFloorEvents(ch *domain.Channel, events []core.FloorEvent) {
	for _, ev := range events {
		c.dispatchFloorEvent(ch, ev)
	}
}

// DispatchFloorEvents is the exported entry point the reaper's timeout
// sweep calls into, so a revocation from FloorManager.CheckTimeouts is
// translated into wire frames by the exact same code as a live
// FLOOR_REQUEST/RELEASE/PING.
func (c *Controller) DispatchFloorEvents(ch *domain.Channel, events []core.FloorEvent) {
	c.dispatchFloorEvents(ch, events)
}

func (c *Controller) dispatchFloorEvent(ch *domain.Channel, ev core.FloorEvent) {
	members := core.Members(ch)
	switch ev.Kind {
	case core.FloorGranted:
		frame, _ := encode(OpFloorGranted, floorGrantedPayload{
			ChannelID:  string(ev.ChannelID),
			UserID:     string(ev.UserID),
			DurationMs: c.Cfg.FloorMaxTakenMs,
		})
		c.Users.SendTo(ev.UserID, frame)

	case core.FloorTaken:
		frame, _ := encode(OpFloorTaken, floorTakenPayload{
			ChannelID: string(ev.ChannelID),
			UserID:    string(ev.UserID),
			Indicator: string(ev.Indicator),
		})
		c.Users.BroadcastTo(members, frame, ev.UserID)

	case core.FloorRevoked:
		frame, _ := encode(OpFloorRevoke, floorRevokePayload{
			ChannelID: string(ev.ChannelID),
			Cause:     ev.Cause,
		})
		c.Users.SendTo(ev.OldHolder, frame)

	case core.FloorIdle:
		frame, _ := encode(OpFloorIdle, floorIdlePayload{ChannelID: string(ev.ChannelID)})
		c.Users.BroadcastTo(members, frame, "")

	case core.FloorQueued:
		frame, _ := encode(OpFloorQueuePos, floorQueuePosInfoPayload{
			ChannelID:     string(ev.ChannelID),
			QueuePosition: ev.QueuePosition,
			QueueSize:     ev.QueueSize,
		})
		c.Users.SendTo(ev.UserID, frame)

	case core.FloorPong:
		frame, _ := encode(OpFloorPong, floorPingPayload{ChannelID: string(ev.ChannelID)})
		c.Users.SendTo(ev.UserID, frame)
	}
}
