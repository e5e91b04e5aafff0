package core

import (
	"testing"

	"github.com/floorwave/relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent [][]byte
}

func (s *fakeSender) TrySend(frame []byte) error {
	s.sent = append(s.sent, frame)
	return nil
}

func TestUserRegistryRegisterIsExclusive(t *testing.T) {
	r := NewUserRegistry()
	_, err := r.Register("alice", "sess-alice", 100, &fakeSender{}, 1000)
	require.NoError(t, err)

	_, err = r.Register("alice", "sess-alice", 50, &fakeSender{}, 2000)
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint16(1005), ce.Code)
}

func TestUserRegistryUnregisterThenReregister(t *testing.T) {
	r := NewUserRegistry()
	_, err := r.Register("alice", "sess-alice", 100, &fakeSender{}, 1000)
	require.NoError(t, err)

	r.Unregister("alice")
	_, ok := r.Get("alice")
	assert.False(t, ok)

	_, err = r.Register("alice", "sess-alice", 100, &fakeSender{}, 1500)
	assert.NoError(t, err)
}

func TestUserRegistrySendToDeliversOnlyToTarget(t *testing.T) {
	r := NewUserRegistry()
	aliceSender := &fakeSender{}
	bobSender := &fakeSender{}
	_, _ = r.Register("alice", "sess-alice", 100, aliceSender, 0)
	_, _ = r.Register("bob", "sess-bob", 100, bobSender, 0)

	r.SendTo("alice", []byte("hi"))
	assert.Len(t, aliceSender.sent, 1)
	assert.Len(t, bobSender.sent, 0)
}

func TestUserRegistryBroadcastToExcludesGivenUser(t *testing.T) {
	r := NewUserRegistry()
	aliceSender := &fakeSender{}
	bobSender := &fakeSender{}
	_, _ = r.Register("alice", "sess-alice", 100, aliceSender, 0)
	_, _ = r.Register("bob", "sess-bob", 100, bobSender, 0)

	ids := map[domain.UserID]struct{}{"alice": {}, "bob": {}}
	r.BroadcastTo(ids, []byte("event"), "alice")

	assert.Len(t, aliceSender.sent, 0)
	assert.Len(t, bobSender.sent, 1)
}

func TestUserRegistryFindStale(t *testing.T) {
	r := NewUserRegistry()
	_, _ = r.Register("alice", "sess-alice", 100, &fakeSender{}, 1000)
	_, _ = r.Register("bob", "sess-bob", 100, &fakeSender{}, 9000)

	stale := r.FindStale(10000, 5000)
	require.Len(t, stale, 1)
	assert.Equal(t, domain.UserID("alice"), stale[0])
}
