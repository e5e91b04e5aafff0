package core

import (
	"testing"
	"time"

	"github.com/floorwave/relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChannel(t *testing.T, channels *ChannelRegistry) *domain.Channel {
	t.Helper()
	ch := channels.Create("room-1", "121.5", "Room One", 10, time.Now())
	require.NoError(t, Join(ch, "alice"))
	require.NoError(t, Join(ch, "bob"))
	require.NoError(t, Join(ch, "carol"))
	return ch
}

func TestFloorManagerRequestGrantsOnIdleFloor(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	events := m.Request(ch, "alice", 100, domain.IndicatorNormal, time.Now())
	require.Len(t, events, 2)
	assert.Equal(t, FloorGranted, events[0].Kind)
	assert.Equal(t, domain.UserID("alice"), events[0].UserID)
	assert.Equal(t, FloorTaken, events[1].Kind)
}

func TestFloorManagerRequestEnqueuesBehindEqualPriority(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	m.Request(ch, "alice", 100, domain.IndicatorNormal, time.Now())
	events := m.Request(ch, "bob", 100, domain.IndicatorNormal, time.Now())

	require.Len(t, events, 1)
	assert.Equal(t, FloorQueued, events[0].Kind)
	assert.Equal(t, 1, events[0].QueuePosition)
}

func TestFloorManagerRequestPreemptsLowerPriority(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	m.Request(ch, "alice", 50, domain.IndicatorNormal, time.Now())
	events := m.Request(ch, "bob", 200, domain.IndicatorNormal, time.Now())

	require.Len(t, events, 3)
	assert.Equal(t, FloorRevoked, events[0].Kind)
	assert.Equal(t, domain.UserID("alice"), events[0].OldHolder)
	assert.Equal(t, FloorGranted, events[1].Kind)
	assert.Equal(t, domain.UserID("bob"), events[1].UserID)
}

func TestFloorManagerRequestByHolderIsIdempotent(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	now := time.Now()
	m.Request(ch, "alice", 100, domain.IndicatorNormal, now)
	events := m.Request(ch, "alice", 100, domain.IndicatorNormal, now)

	require.Len(t, events, 1)
	assert.Equal(t, FloorGranted, events[0].Kind)
	assert.Equal(t, domain.UserID("alice"), events[0].UserID)
	assert.Equal(t, 0, len(ch.Floor.Queue), "holder must never appear in its own queue")
}

func TestFloorManagerReleaseAdvancesQueue(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	now := time.Now()
	m.Request(ch, "alice", 100, domain.IndicatorNormal, now)
	m.Request(ch, "bob", 100, domain.IndicatorNormal, now)

	events := m.Release(ch, "alice", now)
	require.Len(t, events, 2)
	assert.Equal(t, FloorGranted, events[0].Kind)
	assert.Equal(t, domain.UserID("bob"), events[0].UserID)
}

func TestFloorManagerReleaseByNonHolderIsNoOp(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	now := time.Now()
	m.Request(ch, "alice", 100, domain.IndicatorNormal, now)
	events := m.Release(ch, "bob", now)
	assert.Nil(t, events)
}

func TestFloorManagerReleaseByQueuedNonHolderDropsFromQueue(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	now := time.Now()
	m.Request(ch, "alice", 100, domain.IndicatorNormal, now)
	m.Request(ch, "bob", 100, domain.IndicatorNormal, now)

	events := m.Release(ch, "bob", now)
	assert.Nil(t, events)
	assert.Equal(t, 0, ch.Floor.QueuePosition("bob"), "releasing user must be removed from the wait queue")

	events = m.Release(ch, "alice", now)
	require.Len(t, events, 1)
	assert.Equal(t, FloorIdle, events[0].Kind, "bob must not be granted the floor after releasing out of the queue")
}

func TestFloorManagerCheckTimeoutsRevokesOnMaxDuration(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	start := time.Now()
	m.Request(ch, "alice", 100, domain.IndicatorNormal, start)

	events := m.CheckTimeouts(start.Add(31 * time.Second))
	require.Len(t, events, 2)
	assert.Equal(t, FloorRevoked, events[0].Kind)
	assert.Equal(t, "max_duration", events[0].Cause)
	assert.Equal(t, FloorIdle, events[1].Kind)
}

func TestFloorManagerOnDisconnectRemovesFromQueueAndRevokesHolder(t *testing.T) {
	channels := NewChannelRegistry()
	ch := newTestChannel(t, channels)
	m := NewFloorManager(channels, 30*time.Second, 6*time.Second)

	now := time.Now()
	m.Request(ch, "alice", 100, domain.IndicatorNormal, now)
	m.Request(ch, "bob", 50, domain.IndicatorNormal, now)

	events := m.OnDisconnect(ch, "bob", now)
	assert.Nil(t, events, "non-holder disconnect only dequeues, no floor event")
	assert.Equal(t, 0, ch.Floor.QueuePosition("bob"))

	events = m.OnDisconnect(ch, "alice", now)
	require.Len(t, events, 1)
	assert.Equal(t, FloorIdle, events[0].Kind)
}
