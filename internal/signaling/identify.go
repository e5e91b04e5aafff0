package signaling

import (
	"crypto/subtle"

	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
	"github.com/google/uuid"
)

func (c *Controller) handleIdentify(sess *Session, state *connState, env Envelope) error {
	if state.identified {
		return core.ErrUserAlreadyIdentified(state.userID)
	}
	p, err := decodePayload[identifyPayload](env)
	if err != nil {
		return core.ErrInvalidPayload(err.Error())
	}
	if p.UserID == "" {
		return core.ErrInvalidPayload("user_id is required")
	}
	if c.Cfg.Secret != "" && subtle.ConstantTimeCompare([]byte(p.Token), []byte(c.Cfg.Secret)) != 1 {
		return core.ErrInvalidToken()
	}

	priority := c.Cfg.FloorPriorityDefault
	if p.Priority != nil {
		priority = *p.Priority
	}

	id := domain.UserID(p.UserID)
	sessionID := uuid.NewString()
	if _, err := c.Users.Register(id, sessionID, priority, sess, c.NowMs()); err != nil {
		return err
	}
	state.userID = id
	state.identified = true

	ready, _ := encode(OpReady, readyPayload{UserID: p.UserID, SessionID: sessionID})
	return sess.TrySend(ready)
}
