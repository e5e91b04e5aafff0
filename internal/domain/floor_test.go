package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorControlGrantAndRelease(t *testing.T) {
	f := NewFloorControl()
	now := time.Now()

	assert.Equal(t, FloorIdle, f.State)
	f.GrantLocked("alice", 100, IndicatorNormal, now)
	assert.Equal(t, FloorTaken, f.State)
	assert.Equal(t, UserID("alice"), f.Holder)

	f.ClearLocked()
	assert.Equal(t, FloorIdle, f.State)
	assert.Equal(t, UserID(""), f.Holder)
}

func TestCanPreemptRequiresStrictlyHigherPriority(t *testing.T) {
	f := NewFloorControl()
	now := time.Now()
	f.GrantLocked("alice", 100, IndicatorNormal, now)

	assert.False(t, f.CanPreempt(100, IndicatorNormal), "equal priority must not preempt")
	assert.False(t, f.CanPreempt(50, IndicatorNormal), "lower priority must not preempt")
	assert.True(t, f.CanPreempt(101, IndicatorNormal), "strictly higher priority preempts")
}

func TestCanPreemptEmergencyAlwaysWins(t *testing.T) {
	f := NewFloorControl()
	f.GrantLocked("alice", 255, IndicatorNormal, time.Now())

	assert.False(t, f.CanPreempt(1, IndicatorEmergency), "the emergency indicator alone does not preempt; only priority does")
	assert.True(t, f.CanPreempt(EmergencyPriority, IndicatorNormal))
}

func TestCanPreemptOnIdleFloor(t *testing.T) {
	f := NewFloorControl()
	assert.False(t, f.CanPreempt(200, IndicatorEmergency), "nothing to preempt when idle")
}

func TestEnqueueOrdersByPriorityThenArrival(t *testing.T) {
	f := NewFloorControl()
	base := time.Now()

	f.Enqueue("low", 10, IndicatorNormal, base)
	f.Enqueue("high", 90, IndicatorNormal, base.Add(time.Millisecond))
	f.Enqueue("mid-early", 50, IndicatorNormal, base.Add(2*time.Millisecond))
	f.Enqueue("mid-late", 50, IndicatorNormal, base.Add(3*time.Millisecond))

	require.Len(t, f.Queue, 4)
	assert.Equal(t, UserID("high"), f.Queue[0].UserID)
	assert.Equal(t, UserID("mid-early"), f.Queue[1].UserID)
	assert.Equal(t, UserID("mid-late"), f.Queue[2].UserID)
	assert.Equal(t, UserID("low"), f.Queue[3].UserID)
}

func TestEnqueueReplacesExistingEntryForSameUser(t *testing.T) {
	f := NewFloorControl()
	now := time.Now()
	f.Enqueue("bob", 10, IndicatorNormal, now)
	f.Enqueue("bob", 80, IndicatorNormal, now.Add(time.Second))

	require.Len(t, f.Queue, 1)
	assert.Equal(t, uint8(80), f.Queue[0].Priority)
}

func TestDequeueNextPopsHighestPriority(t *testing.T) {
	f := NewFloorControl()
	now := time.Now()
	f.Enqueue("a", 10, IndicatorNormal, now)
	f.Enqueue("b", 90, IndicatorNormal, now)

	next, ok := f.DequeueNext()
	require.True(t, ok)
	assert.Equal(t, UserID("b"), next.UserID)
	assert.Len(t, f.Queue, 1)
}

func TestDequeueNextOnEmptyQueue(t *testing.T) {
	f := NewFloorControl()
	_, ok := f.DequeueNext()
	assert.False(t, ok)
}

func TestQueuePosition(t *testing.T) {
	f := NewFloorControl()
	now := time.Now()
	f.Enqueue("a", 90, IndicatorNormal, now)
	f.Enqueue("b", 10, IndicatorNormal, now)

	assert.Equal(t, 1, f.QueuePosition("a"))
	assert.Equal(t, 2, f.QueuePosition("b"))
	assert.Equal(t, 0, f.QueuePosition("ghost"))
}

func TestIsMaxTakenExceeded(t *testing.T) {
	f := NewFloorControl()
	now := time.Now()
	f.GrantLocked("alice", 100, IndicatorNormal, now)

	assert.False(t, f.IsMaxTakenExceeded(now.Add(5*time.Second), 30*time.Second))
	assert.True(t, f.IsMaxTakenExceeded(now.Add(31*time.Second), 30*time.Second))
}

func TestIsPingTimeout(t *testing.T) {
	f := NewFloorControl()
	now := time.Now()
	f.GrantLocked("alice", 100, IndicatorNormal, now)

	assert.False(t, f.IsPingTimeout(now.Add(5*time.Second), 6*time.Second))
	assert.True(t, f.IsPingTimeout(now.Add(7*time.Second), 6*time.Second))
}
