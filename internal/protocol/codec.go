package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes outbound messages and splits inbound frames into a kind and a raw payload.
// Text frames use JSON, binary frames use MessagePack; both carry the same envelope.
type Codec interface {
	Name() string
	Encode(msg Message) ([]byte, error)
	envelope(data []byte) (MessageType, []byte, error)
	payload(raw []byte, v any) error
}

var (
	// JSON is the codec for text frames
	JSON Codec = jsonCodec{}

	// MsgPack is the codec for binary frames
	MsgPack Codec = msgpackCodec{}
)

type jsonCodec struct{}

type jsonEnvelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) envelope(data []byte) (MessageType, []byte, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}
	raw := bytes.TrimSpace(env.Payload)
	if bytes.Equal(raw, []byte("null")) {
		raw = nil
	}
	return env.Type, raw, nil
}

func (jsonCodec) payload(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

type msgpackCodec struct{}

type msgpackEnvelope struct {
	Type    MessageType        `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Encode(msg Message) ([]byte, error) {
	return msgpack.Marshal(msg)
}

func (msgpackCodec) envelope(data []byte) (MessageType, []byte, error) {
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}
	raw := []byte(env.Payload)
	// 0xc0 is msgpack nil
	if len(raw) == 1 && raw[0] == 0xc0 {
		raw = nil
	}
	return env.Type, raw, nil
}

func (msgpackCodec) payload(raw []byte, v any) error {
	return msgpack.Unmarshal(raw, v)
}
