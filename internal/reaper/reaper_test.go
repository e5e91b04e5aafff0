package reaper

import (
	"testing"
	"time"

	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct{}

func (fakeSender) TrySend([]byte) error { return nil }

func newTestReaper(channels *core.ChannelRegistry, users *core.UserRegistry, floors *core.FloorManager, endpoints *core.EndpointRegistry, nowMs func() int64) *Reaper {
	return &Reaper{
		Users:           users,
		Channels:        channels,
		Endpoints:       endpoints,
		Floors:          floors,
		ZombieTimeoutMs: 1000,
		Interval:        time.Minute,
		NowMs:           nowMs,
		Log:             zerolog.Nop(),
	}
}

func TestSweepReapsStaleUserAndReleasesFloor(t *testing.T) {
	channels := core.NewChannelRegistry()
	users := core.NewUserRegistry()
	floors := core.NewFloorManager(channels, time.Minute, time.Minute)
	endpoints := core.NewEndpointRegistry(channels)

	now := int64(0)
	_, err := users.Register("alice", "sess-alice", 1, fakeSender{}, now)
	require.NoError(t, err)
	ch := channels.Create("ch1", "123.45", "room", 4, time.Now())
	require.NoError(t, core.Join(ch, "alice"))
	floors.Request(ch, "alice", 1, "", time.Now())

	var dispatched []core.FloorEvent
	r := newTestReaper(channels, users, floors, endpoints, func() int64 { return now })
	r.Dispatch = func(_ *domain.Channel, events []core.FloorEvent) {
		dispatched = append(dispatched, events...)
	}

	now = 5000 // beyond ZombieTimeoutMs past alice's registration
	r.sweep()

	_, stillRegistered := users.Get("alice")
	assert.False(t, stillRegistered)
	assert.Equal(t, 0, core.MemberCount(ch))
	require.Len(t, dispatched, 1)
	assert.Equal(t, core.FloorIdle, dispatched[0].Kind)
}

func TestSweepLeavesFreshUsersAlone(t *testing.T) {
	channels := core.NewChannelRegistry()
	users := core.NewUserRegistry()
	floors := core.NewFloorManager(channels, time.Minute, time.Minute)
	endpoints := core.NewEndpointRegistry(channels)

	now := int64(0)
	_, err := users.Register("alice", "sess-alice", 1, fakeSender{}, now)
	require.NoError(t, err)

	r := newTestReaper(channels, users, floors, endpoints, func() int64 { return now })
	r.sweep()

	_, stillRegistered := users.Get("alice")
	assert.True(t, stillRegistered)
}

func TestSweepDispatchesFloorTimeouts(t *testing.T) {
	channels := core.NewChannelRegistry()
	users := core.NewUserRegistry()
	floors := core.NewFloorManager(channels, time.Millisecond, time.Minute)
	endpoints := core.NewEndpointRegistry(channels)

	ch := channels.Create("ch1", "123.45", "room", 4, time.Now())
	require.NoError(t, core.Join(ch, "alice"))
	floors.Request(ch, "alice", 1, "", time.Now().Add(-time.Hour))

	var dispatched []core.FloorEvent
	r := newTestReaper(channels, users, floors, endpoints, func() int64 { return 0 })
	r.Dispatch = func(_ *domain.Channel, events []core.FloorEvent) {
		dispatched = append(dispatched, events...)
	}

	r.sweep()

	require.NotEmpty(t, dispatched)
	assert.Equal(t, core.FloorRevoked, dispatched[0].Kind)
}
