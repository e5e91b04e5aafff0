package signaling

import (
	"errors"

	"github.com/floorwave/relay/internal/core"
)

var errMissingPayload = errors.New("signaling: missing payload")

type errorPayload struct {
	Code    uint16 `json:"code"`
	Message string `json:"message"`
}

func encodeError(err error) []byte {
	var ce *core.Error
	if !errors.As(err, &ce) {
		ce = core.ErrInternal(err.Error())
	}
	b, _ := encode(OpError, errorPayload{Code: ce.Code, Message: ce.Message})
	return b
}
