package signaling

import "encoding/json"

// Envelope is the wire-level shape of every frame in both directions:
// an opcode and an opaque payload decoded per-opcode by the handler.
type Envelope struct {
	Op uint8           `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
}

func encode(op uint8, payload interface{}) ([]byte, error) {
	d, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Op: op, D: d})
}

func decodePayload[T any](env Envelope) (T, error) {
	var v T
	if len(env.D) == 0 {
		return v, errMissingPayload
	}
	if err := json.Unmarshal(env.D, &v); err != nil {
		return v, err
	}
	return v, nil
}
