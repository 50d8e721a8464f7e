package apiconnect

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// codecName replaces connect's built-in protobuf JSON codec, so requests
// with Content-Type application/json decode into plain api structs.
const codecName = "json"

// JSONCodec marshals api messages with encoding/json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return codecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// MarshalStable is Marshal; encoding/json output is already deterministic for structs.
func (c JSONCodec) MarshalStable(msg any) ([]byte, error) {
	return c.Marshal(msg)
}

// IsBinary reports false so GET requests carry the message unencoded.
func (JSONCodec) IsBinary() bool { return false }

func withCodec[O any](opts []O, codec O) []O {
	return append([]O{codec}, opts...)
}
