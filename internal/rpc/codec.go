// Package rpc defines the registration.v1.RegistrationService Connect API.
//
// Messages are plain Go structs carried with a JSON codec, so browser clients
// can call procedures with fetch and the Connect protocol's unary POST form.
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec replaces Connect's protobuf-backed "json" codec with encoding/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON message: %w", err)
	}
	return nil
}
