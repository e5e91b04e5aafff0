package core

import (
	"fmt"

	"github.com/floorwave/relay/internal/domain"
)

// Error is a protocol-level failure carrying the numeric code the wire
// layer reports back to the client (1xxx connection/auth, 2xxx channel,
// 3xxx message, 9xxx internal), ported from the original error table.
type Error struct {
	Code    uint16
	Message string
}

func (e *Error) Error() string { return e.Message }

func newErr(code uint16, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func ErrNotAuthenticated() *Error { return newErr(1000, "authentication required") }
func ErrInvalidToken() *Error     { return newErr(1001, "invalid or expired token") }
func ErrInvalidOpcode(op uint8) *Error {
	return newErr(1003, "unknown opcode: %d", op)
}
func ErrInvalidPayload(msg string) *Error { return newErr(1004, "invalid payload: %s", msg) }
func ErrUserAlreadyIdentified(id domain.UserID) *Error {
	return newErr(1005, "user already identified: %s", id)
}

func ErrChannelNotFound(id domain.ChannelID) *Error { return newErr(2000, "channel not found: %s", id) }
func ErrChannelFull(id domain.ChannelID) *Error     { return newErr(2001, "channel is full: %s", id) }
func ErrChannelAccessDenied(id domain.ChannelID) *Error {
	return newErr(2002, "access denied to channel: %s", id)
}
func ErrAlreadyInChannel(id domain.ChannelID) *Error { return newErr(2003, "already in channel: %s", id) }
func ErrNotInChannel(id domain.ChannelID) *Error     { return newErr(2004, "not in channel: %s", id) }

func ErrEmptyMessage() *Error          { return newErr(3000, "message content is empty") }
func ErrMessageTooLong(n int) *Error   { return newErr(3001, "message too long: %d chars", n) }
func ErrMessageNotInChannel(id domain.ChannelID) *Error {
	return newErr(3002, "must join channel before messaging: %s", id)
}

func ErrRateLimited() *Error { return newErr(9001, "rate limit exceeded, slow down") }

func ErrInternal(msg string) *Error { return newErr(9000, "internal server error: %s", msg) }
