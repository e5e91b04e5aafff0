package media

import (
	"net"
	"testing"

	"github.com/pion/stun/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBindingRequest(t *testing.T, username, password string) *stun.Message {
	t.Helper()
	msg, err := stun.Build(
		stun.TransactionID,
		stun.BindingRequest,
		stun.Username(username),
		stun.NewShortTermIntegrity(password),
		stun.Fingerprint,
	)
	require.NoError(t, err)
	return msg
}

func TestParseUsernameSplitsOnColon(t *testing.T) {
	msg := buildBindingRequest(t, "serverufrag:clientufrag", "pwd")
	ufrag, ok := ParseUsername(msg)
	require.True(t, ok)
	assert.Equal(t, "serverufrag", ufrag)
}

func TestParseUsernameWithoutColonReturnsWhole(t *testing.T) {
	msg := buildBindingRequest(t, "justufrag", "pwd")
	ufrag, ok := ParseUsername(msg)
	require.True(t, ok)
	assert.Equal(t, "justufrag", ufrag)
}

func TestVerifyBindingRequestAcceptsCorrectCredentials(t *testing.T) {
	msg := buildBindingRequest(t, "ufrag:peer", "secretpwd")
	assert.True(t, VerifyBindingRequest(msg, "ufrag", "secretpwd"))
}

func TestVerifyBindingRequestRejectsWrongUfrag(t *testing.T) {
	msg := buildBindingRequest(t, "ufrag:peer", "secretpwd")
	assert.False(t, VerifyBindingRequest(msg, "other", "secretpwd"))
}

func TestVerifyBindingRequestRejectsWrongPassword(t *testing.T) {
	msg := buildBindingRequest(t, "ufrag:peer", "secretpwd")
	assert.False(t, VerifyBindingRequest(msg, "ufrag", "wrongpwd"))
}

func TestIsBindingRequest(t *testing.T) {
	req := buildBindingRequest(t, "ufrag:peer", "pwd")
	assert.True(t, IsBindingRequest(req))

	resp, err := BuildBindingSuccess(req, &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4000}, "pwd")
	require.NoError(t, err)
	assert.False(t, IsBindingRequest(resp))
}
