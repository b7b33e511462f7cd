// Package api defines the wire messages of the hangout RPC services.
//
// Messages are plain Go structs encoded as JSON. Clients send them with
// Content-Type application/json (Connect protocol, unary).
package api

import (
	"encoding/json"
	"fmt"
)

// CodecName is the Connect codec name; it selects application/json.
const CodecName = "json"

// JSONCodec is a connect.Codec for the plain structs in this package.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
