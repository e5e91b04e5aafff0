package signaling

import (
	"time"

	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
)

func (c *Controller) handleMessageCreate(sess *Session, state *connState, env Envelope) error {
	if c.MessageLimiter != nil && !c.MessageLimiter.Allow(state.userID) {
		return core.ErrRateLimited()
	}
	p, err := decodePayload[messageCreatePayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	if p.Content == "" {
		return core.ErrEmptyMessage()
	}
	if len(p.Content) > c.Cfg.MaxMessageLength {
		return core.ErrMessageTooLong(len(p.Content))
	}
	ch, ok := c.Channels.Get(domain.ChannelID(p.ChannelID))
	if !ok {
		return core.ErrChannelNotFound(domain.ChannelID(p.ChannelID))
	}
	if _, member := core.Members(ch)[state.userID]; !member {
		return core.ErrMessageNotInChannel(ch.ID)
	}

	frame, _ := encode(OpMessageEvent, messageEventPayload{
		ChannelID: string(ch.ID),
		AuthorID:  string(state.userID),
		Content:   p.Content,
		Timestamp: time.Now().UnixMilli(),
	})
	c.Users.BroadcastTo(core.Members(ch), frame, "")
	return nil
}
