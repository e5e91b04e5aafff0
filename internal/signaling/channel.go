package signaling

import (
	"time"

	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
)

func (c *Controller) handleChannelCreate(sess *Session, state *connState, env Envelope) error {
	p, err := decodePayload[channelCreatePayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	if p.ChannelID == "" {
		return core.ErrInvalidPayload("channel_id is required")
	}
	capacity := p.Capacity
	if capacity <= 0 {
		capacity = c.Cfg.MaxPeersPerChannel
	}
	ch := c.Channels.Create(domain.ChannelID(p.ChannelID), p.Freq, p.ChannelName, capacity, time.Now())

	frame, _ := encode(OpAck, ackPayload{Op: OpChannelCreate, Data: channelSummaryOf(ch)})
	return sess.TrySend(frame)
}

func (c *Controller) handleChannelJoin(sess *Session, state *connState, env Envelope) error {
	p, err := decodePayload[channelJoinPayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	ch, ok := c.Channels.Get(domain.ChannelID(p.ChannelID))
	if !ok {
		return core.ErrChannelNotFound(domain.ChannelID(p.ChannelID))
	}
	if err := core.Join(ch, state.userID); err != nil {
		return err
	}

	var sdpAnswer *string
	if p.SDPOffer != nil && c.SDP != nil {
		answer, ufrag, pwd, err := c.SDP.Answer(*p.SDPOffer)
		if err != nil {
			core.Leave(ch, state.userID)
			return core.ErrInvalidPayload(err.Error())
		}
		ep := domain.NewEndpoint(domain.Ufrag(ufrag), pwd, state.userID, ch.ID, c.NowMs())
		if p.SSRC != 0 {
			ep.AddTrack(p.SSRC, domain.TrackAudio)
		}
		c.Endpoints.Insert(ep)
		sdpAnswer = &answer
	}

	members := make([]string, 0)
	for id := range core.Members(ch) {
		members = append(members, string(id))
	}

	frame, _ := encode(OpAck, ackPayload{Op: OpChannelJoin, Data: channelJoinAckData{
		ChannelID: string(ch.ID),
		SDPAnswer: sdpAnswer,
		Members:   members,
	}})
	if err := sess.TrySend(frame); err != nil {
		return err
	}

	event, _ := encode(OpChannelEvent, channelEventPayload{Event: "joined", ChannelID: string(ch.ID), UserID: string(state.userID)})
	c.Users.BroadcastTo(core.Members(ch), event, state.userID)
	return nil
}

func (c *Controller) handleChannelLeave(sess *Session, state *connState, env Envelope) error {
	p, err := decodePayload[channelLeavePayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	ch, ok := c.Channels.Get(domain.ChannelID(p.ChannelID))
	if !ok {
		return core.ErrChannelNotFound(domain.ChannelID(p.ChannelID))
	}
	core.Leave(ch, state.userID)
	events := c.Floors.OnDisconnect(ch, state.userID, time.Now())
	c.dispatchFloorEvents(ch, events)

	event, _ := encode(OpChannelEvent, channelEventPayload{Event: "left", ChannelID: string(ch.ID), UserID: string(state.userID)})
	c.Users.BroadcastTo(core.Members(ch), event, "")
	return nil
}

func (c *Controller) handleChannelDelete(sess *Session, state *connState, env Envelope) error {
	p, err := decodePayload[channelDeletePayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	id := domain.ChannelID(p.ChannelID)
	if ch, ok := c.Channels.Get(id); ok {
		event, _ := encode(OpChannelEvent, channelEventPayload{Event: "deleted", ChannelID: string(id)})
		c.Users.BroadcastTo(core.Members(ch), event, "")
	}
	if !c.Channels.Delete(id) {
		return core.ErrChannelNotFound(id)
	}
	frame, _ := encode(OpAck, ackPayload{Op: OpChannelDelete})
	return sess.TrySend(frame)
}

func (c *Controller) handleChannelList(sess *Session, state *connState, env Envelope) error {
	summaries := make([]channelSummary, 0)
	for _, ch := range c.Channels.All() {
		summaries = append(summaries, channelSummaryOf(ch))
	}
	frame, _ := encode(OpAck, ackPayload{Op: OpChannelList, Data: summaries})
	return sess.TrySend(frame)
}

func (c *Controller) handleChannelInfo(sess *Session, state *connState, env Envelope) error {
	p, err := decodePayload[channelInfoPayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	ch, ok := c.Channels.Get(domain.ChannelID(p.ChannelID))
	if !ok {
		return core.ErrChannelNotFound(domain.ChannelID(p.ChannelID))
	}
	members := make([]string, 0)
	for id := range core.Members(ch) {
		members = append(members, string(id))
	}
	frame, _ := encode(OpAck, ackPayload{Op: OpChannelInfo, Data: channelInfoData{
		channelSummary: channelSummaryOf(ch),
		Members:        members,
	}})
	return sess.TrySend(frame)
}

func channelSummaryOf(ch *domain.Channel) channelSummary {
	return channelSummary{
		ChannelID:   string(ch.ID),
		Freq:        ch.Freq,
		Name:        ch.Name,
		MemberCount: core.MemberCount(ch),
		Capacity:    ch.Capacity,
		CreatedAt:   ch.CreatedAt.Unix(),
	}
}
