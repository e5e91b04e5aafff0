package signaling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/floorwave/relay/internal/config"
	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Controller owns the registries every signaling handler touches and
// is shared by every connection's goroutine pair.
type Controller struct {
	Cfg       *config.Config
	Users     *core.UserRegistry
	Channels  *core.ChannelRegistry
	Floors    *core.FloorManager
	Endpoints *core.EndpointRegistry
	SDP       *SDPBuilder

	NowMs func() int64

	// MessageLimiter and FloorLimiter throttle the two opcodes most
	// likely to be abused by a misbehaving client: chat flooding and
	// floor-request thrashing. Nil disables throttling.
	MessageLimiter *RateLimiter
	FloorLimiter   *RateLimiter

	// HandshakesInFlight reports the media relay's DTLS session count
	// (handshakes in progress plus established connections still being
	// read) for the admin trace endpoint. Nil when no relay is wired (tests).
	HandshakesInFlight func() int
}

// connState is per-connection: the identity a session has claimed via
// IDENTIFY, if any.
type connState struct {
	userID     domain.UserID
	identified bool
}

// HandleConnection runs one WebSocket connection end to end: it starts
// the write pump, sends HELLO, then reads frames until the socket
// closes or the context is cancelled, cleaning up registry state on
// the way out. It returns once the write pump has finished.
func (c *Controller) HandleConnection(ctx context.Context, conn wsConn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := newSession(conn, c.Cfg.EgressQueueSize)
	state := &connState{}

	writeDone := make(chan struct{})
	go func() {
		sess.writePump(ctx)
		close(writeDone)
	}()

	hello, _ := encode(OpHello, helloPayload{HeartbeatIntervalMs: c.Cfg.HeartbeatIntervalMs})
	_ = sess.TrySend(hello)

	sess.readPump(ctx, func(raw []byte) {
		c.dispatch(sess, state, raw)
	})

	c.onDisconnect(state)
	<-writeDone
}

func (c *Controller) onDisconnect(state *connState) {
	if !state.identified {
		return
	}
	now := time.Now()
	for _, ch := range c.Channels.All() {
		if _, isMember := core.Members(ch)[state.userID]; !isMember {
			continue
		}
		core.Leave(ch, state.userID)
		events := c.Floors.OnDisconnect(ch, state.userID, now)
		c.dispatchFloorEvents(ch, events)
	}
	c.Users.Unregister(state.userID)
	log.Info().Str("module", "signaling").Str("user_id", string(state.userID)).Msg("disconnected")
}

func (c *Controller) dispatch(sess *Session, state *connState, raw []byte) {
	var env Envelope
	if err := decode(raw, &env); err != nil {
		_ = sess.TrySend(encodeError(core.ErrInvalidPayload(err.Error())))
		return
	}
	if state.userID != "" {
		c.Users.Touch(state.userID, c.NowMs())
	}

	if !state.identified && env.Op != OpIdentify && env.Op != OpHeartbeat {
		_ = sess.TrySend(encodeError(core.ErrNotAuthenticated()))
		return
	}

	var err error
	switch env.Op {
	case OpHeartbeat:
		err = c.handleHeartbeat(sess, state, env)
	case OpIdentify:
		err = c.handleIdentify(sess, state, env)
	case OpChannelCreate:
		err = c.handleChannelCreate(sess, state, env)
	case OpChannelJoin:
		err = c.handleChannelJoin(sess, state, env)
	case OpChannelLeave:
		err = c.handleChannelLeave(sess, state, env)
	case OpChannelDelete:
		err = c.handleChannelDelete(sess, state, env)
	case OpChannelList:
		err = c.handleChannelList(sess, state, env)
	case OpChannelInfo:
		err = c.handleChannelInfo(sess, state, env)
	case OpMessageCreate:
		err = c.handleMessageCreate(sess, state, env)
	case OpFloorRequest:
		err = c.handleFloorRequest(sess, state, env)
	case OpFloorRelease:
		err = c.handleFloorRelease(sess, state, env)
	case OpFloorPing:
		err = c.handleFloorPong(sess, state, env)
	default:
		err = core.ErrInvalidOpcode(env.Op)
	}
	if err != nil {
		_ = sess.TrySend(encodeError(err))
	}
}

func (c *Controller) handleHeartbeat(sess *Session, state *connState, env Envelope) error {
	ack, err := encode(OpHeartbeatAck, struct{}{})
	if err != nil {
		return err
	}
	return sess.TrySend(ack)
}

func decode(raw []byte, v interface{}) error {
	return json.Unmarshal(raw, v)
}
