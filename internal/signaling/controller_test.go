package signaling

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/floorwave/relay/internal/config"
	"github.com/floorwave/relay/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn feeds a fixed script of inbound frames to readPump and
// records every outbound frame the write pump flushes, so a full
// Controller.HandleConnection round trip can be driven without a real
// socket.
type fakeConn struct {
	mu   sync.Mutex
	in   [][]byte
	out  [][]byte
	done chan struct{}
}

func newFakeConn(frames ...[]byte) *fakeConn {
	return &fakeConn{in: frames, done: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.in) == 0 {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
		return 0, nil, io.EOF
	}
	f := c.in[0]
	c.in = c.in[1:]
	return 1, f, nil
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, append([]byte{}, data...))
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte{}, c.out...)
}

func envFrame(t *testing.T, op uint8, payload interface{}) []byte {
	t.Helper()
	f, err := encode(op, payload)
	require.NoError(t, err)
	return f
}

func decodeOps(t *testing.T, frames [][]byte) []uint8 {
	t.Helper()
	ops := make([]uint8, 0, len(frames))
	for _, f := range frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		ops = append(ops, env.Op)
	}
	return ops
}

func testController() *Controller {
	cfg := &config.Config{
		EgressQueueSize:      8,
		HeartbeatIntervalMs:  10000,
		FloorPriorityDefault: 1,
		MaxMessageLength:     500,
	}
	channels := core.NewChannelRegistry()
	return &Controller{
		Cfg:       cfg,
		Users:     core.NewUserRegistry(),
		Channels:  channels,
		Floors:    core.NewFloorManager(channels, time.Minute, time.Minute),
		Endpoints: core.NewEndpointRegistry(channels),
		NowMs:     func() int64 { return 1000 },
	}
}

func TestHandleConnectionSendsHelloFirst(t *testing.T) {
	conn := newFakeConn()
	ctrl := testController()
	ctrl.HandleConnection(context.Background(), conn)

	ops := decodeOps(t, conn.frames())
	require.Len(t, ops, 1)
	assert.Equal(t, OpHello, ops[0])
}

func TestDispatchRejectsUnidentifiedBeforeIdentify(t *testing.T) {
	conn := newFakeConn(envFrame(t, OpChannelList, nil))
	ctrl := testController()
	ctrl.HandleConnection(context.Background(), conn)

	ops := decodeOps(t, conn.frames())
	require.Len(t, ops, 2)
	assert.Equal(t, OpHello, ops[0])
	assert.Equal(t, OpError, ops[1])
}

func TestIdentifyThenChannelCreateAndJoin(t *testing.T) {
	ctrl := testController()
	conn := newFakeConn(
		envFrame(t, OpIdentify, identifyPayload{UserID: "alice"}),
		envFrame(t, OpChannelCreate, channelCreatePayload{ChannelID: "ch1", Capacity: 4}),
		envFrame(t, OpChannelJoin, channelJoinPayload{ChannelID: "ch1"}),
	)
	ctrl.HandleConnection(context.Background(), conn)

	ops := decodeOps(t, conn.frames())
	assert.Equal(t, []uint8{OpHello, OpReady, OpAck, OpAck}, ops)

	_, ok := ctrl.Channels.Get("ch1")
	assert.True(t, ok)
}

func TestDoubleIdentifyIsRejected(t *testing.T) {
	ctrl := testController()
	conn := newFakeConn(
		envFrame(t, OpIdentify, identifyPayload{UserID: "alice"}),
		envFrame(t, OpIdentify, identifyPayload{UserID: "alice"}),
	)
	ctrl.HandleConnection(context.Background(), conn)

	ops := decodeOps(t, conn.frames())
	assert.Equal(t, []uint8{OpHello, OpReady, OpError}, ops)
}

func TestOnDisconnectLeavesChannelsAndUnregisters(t *testing.T) {
	ctrl := testController()
	conn := newFakeConn(
		envFrame(t, OpIdentify, identifyPayload{UserID: "alice"}),
		envFrame(t, OpChannelCreate, channelCreatePayload{ChannelID: "ch1", Capacity: 4}),
		envFrame(t, OpChannelJoin, channelJoinPayload{ChannelID: "ch1"}),
	)
	ctrl.HandleConnection(context.Background(), conn)

	_, stillIdentified := ctrl.Users.Get("alice")
	assert.False(t, stillIdentified)

	ch, ok := ctrl.Channels.Get("ch1")
	require.True(t, ok)
	assert.Equal(t, 0, core.MemberCount(ch))
}

func TestMessageCreateRateLimited(t *testing.T) {
	ctrl := testController()
	ctrl.MessageLimiter = NewRateLimiter(1, time.Minute)
	conn := newFakeConn(
		envFrame(t, OpIdentify, identifyPayload{UserID: "alice"}),
		envFrame(t, OpChannelCreate, channelCreatePayload{ChannelID: "ch1", Capacity: 4}),
		envFrame(t, OpChannelJoin, channelJoinPayload{ChannelID: "ch1"}),
		envFrame(t, OpMessageCreate, messageCreatePayload{ChannelID: "ch1", Content: "hi"}),
		envFrame(t, OpMessageCreate, messageCreatePayload{ChannelID: "ch1", Content: "again"}),
	)
	ctrl.HandleConnection(context.Background(), conn)

	ops := decodeOps(t, conn.frames())
	assert.Equal(t, []uint8{OpHello, OpReady, OpAck, OpAck, OpError}, ops)
}

func TestUnknownOpcodeReturnsError(t *testing.T) {
	ctrl := testController()
	conn := newFakeConn(
		envFrame(t, OpIdentify, identifyPayload{UserID: "alice"}),
		envFrame(t, 255, nil),
	)
	ctrl.HandleConnection(context.Background(), conn)

	ops := decodeOps(t, conn.frames())
	assert.Equal(t, []uint8{OpHello, OpReady, OpError}, ops)
}

func TestMalformedEnvelopeReturnsError(t *testing.T) {
	ctrl := testController()
	conn := newFakeConn([]byte("not json"))
	ctrl.HandleConnection(context.Background(), conn)

	ops := decodeOps(t, conn.frames())
	assert.Equal(t, []uint8{OpHello, OpError}, ops)
}
