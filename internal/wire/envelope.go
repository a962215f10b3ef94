package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

var nullValue = json.RawMessage("null")

// Answer is a decoded envelope: the request recovered from the key and the
// peer's answer value.
type Answer struct {
	Key     string
	Request Request
	Value   json.RawMessage
}

// IsNull reports whether the peer answered null.
func (a Answer) IsNull() bool {
	return len(a.Value) == 0 || string(a.Value) == "null"
}

// Decode unmarshals the answer value into v.
func (a Answer) Decode(v any) error {
	if len(a.Value) == 0 {
		return json.Unmarshal(nullValue, v)
	}
	return json.Unmarshal(a.Value, v)
}

// CanonicalKey re-encodes the recovered request, so a key echoed with
// different spacing still matches the string that was queued.
func (a Answer) CanonicalKey() string {
	key, err := Encode(a.Request)
	if err != nil {
		return a.Key
	}
	return key
}

// EncodeEnvelope builds the single-entry answer object for key. A nil value
// encodes as null; json.RawMessage values are embedded verbatim.
func EncodeEnvelope(key string, value any) (string, error) {
	raw, err := rawValue(value)
	if err != nil {
		return "", err
	}
	text, err := marshal(map[string]json.RawMessage{key: raw})
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return text, nil
}

// DecodeAnswer parses one inbound line.
func DecodeAnswer(line string) (Answer, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &envelope); err != nil {
		return Answer{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if len(envelope) != 1 {
		return Answer{}, fmt.Errorf("%w: expected exactly one entry, got %d", ErrMalformedEnvelope, len(envelope))
	}
	for key, value := range envelope {
		req, err := ParseRequest(key)
		if err != nil {
			return Answer{}, fmt.Errorf("%w: key: %w", ErrMalformedEnvelope, err)
		}
		if len(value) == 0 {
			value = nullValue
		}
		return Answer{Key: key, Request: req, Value: value}, nil
	}
	return Answer{}, ErrMalformedEnvelope
}

func rawValue(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case nil:
		return nullValue, nil
	case json.RawMessage:
		if len(v) == 0 {
			return nullValue, nil
		}
		if !json.Valid(v) {
			return nil, errors.New("encode envelope: invalid raw value")
		}
		return v, nil
	default:
		text, err := marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode envelope value: %w", err)
		}
		return json.RawMessage(text), nil
	}
}
