package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrMissingType = errors.New("envelope has no type")

// Envelope is one decoded frame.
type Envelope struct {
	Type MessageType
	// Message is the typed payload, e.g. *PlayerHit for TypePlayerHit.
	Message Message
	// Fields is the untyped view of the whole frame. The type discriminator
	// is read from it; handlers use Message.
	Fields *structpb.Struct
}

// Decode parses a frame into an envelope. The frame must be a JSON object
// with a known `type`, and its payload must match that type.
//
// The frame is parsed twice. The first pass only establishes that it is an
// object and finds the discriminator. The payload structs are plain Go types
// with custom JSON forms (vectors travel as arrays), which protojson cannot
// target, so the second pass goes through encoding/json.
func Decode(frame []byte) (Envelope, error) {
	fields := &structpb.Struct{}
	if err := protojson.Unmarshal(frame, fields); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	tag, ok := fields.GetFields()["type"]
	if !ok {
		return Envelope{}, ErrMissingType
	}
	if _, isString := tag.GetKind().(*structpb.Value_StringValue); !isString {
		return Envelope{}, fmt.Errorf("%w: type is not a string", ErrMissingType)
	}
	t, err := ParseMessageType(tag.GetStringValue())
	if err != nil {
		return Envelope{}, err
	}

	msg, err := newMessage(t)
	if err != nil {
		return Envelope{}, err
	}
	if err := json.Unmarshal(frame, msg); err != nil {
		return Envelope{}, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return Envelope{
		Type:    t,
		Message: msg,
		Fields:  fields,
	}, nil
}

// Encode serializes msg and stamps its type discriminator.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type(), err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type(), err)
	}
	tag, err := json.Marshal(msg.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// NewEnvelope wraps msg as if it had been received, for local injection and tests.
func NewEnvelope(msg Message) (Envelope, error) {
	frame, err := Encode(msg)
	if err != nil {
		return Envelope{}, err
	}
	return Decode(frame)
}
