package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelRegistryCreateIsIdempotent(t *testing.T) {
	r := NewChannelRegistry()
	now := time.Now()
	a := r.Create("room-1", "121.5", "Room One", 10, now)
	b := r.Create("room-1", "999.9", "Different Name", 1, now)
	assert.Same(t, a, b, "second create for the same id must return the original channel")
}

func TestJoinEnforcesCapacity(t *testing.T) {
	r := NewChannelRegistry()
	ch := r.Create("room-1", "121.5", "Room One", 1, time.Now())

	require.NoError(t, Join(ch, "alice"))
	err := Join(ch, "bob")
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint16(2001), ce.Code)
}

func TestJoinRejectsDoubleMembership(t *testing.T) {
	r := NewChannelRegistry()
	ch := r.Create("room-1", "121.5", "Room One", 10, time.Now())

	require.NoError(t, Join(ch, "alice"))
	err := Join(ch, "alice")
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint16(2003), ce.Code)
}

func TestLeaveIsNoOpForNonMember(t *testing.T) {
	r := NewChannelRegistry()
	ch := r.Create("room-1", "121.5", "Room One", 10, time.Now())
	Leave(ch, "ghost")
	assert.Equal(t, 0, MemberCount(ch))
}

func TestChannelRegistryDelete(t *testing.T) {
	r := NewChannelRegistry()
	r.Create("room-1", "121.5", "Room One", 10, time.Now())

	assert.True(t, r.Delete("room-1"))
	assert.False(t, r.Delete("room-1"), "deleting twice reports the absence the second time")
	_, ok := r.Get("room-1")
	assert.False(t, ok)
}
