package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

var (
	// ErrInvalidRequest reports a request that cannot be serialized.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMalformedEnvelope reports an inbound line that is not a single-entry answer object.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Request is one command addressed to the peer.
type Request struct {
	Type      string         `json:"Type"`
	Name      string         `json:"Name"`
	Method    string         `json:"Method"`
	Arguments map[string]any `json:"Arguments,omitempty"`
}

// NewRequest builds a request and checks the required fields.
func NewRequest(requestType, name, method string, arguments map[string]any) (Request, error) {
	req := Request{
		Type:      requestType,
		Name:      name,
		Method:    method,
		Arguments: arguments,
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate reports missing required fields.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Type) == "" {
		missing = append(missing, "Type")
	}
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "Name")
	}
	if strings.TrimSpace(r.Method) == "" {
		missing = append(missing, "Method")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Decorate returns a copy of the request where every infinite float in the
// arguments is replaced by "inf" or "-inf". Maps with string keys, slices and
// arrays of any element type are walked; a container holding no infinity is
// kept as is.
func Decorate(r Request) Request {
	if r.Arguments == nil {
		return r
	}
	out := r
	out.Arguments = make(map[string]any, len(r.Arguments))
	for key, value := range r.Arguments {
		out.Arguments[key], _ = decorateValue(reflect.ValueOf(value))
	}
	return out
}

// decorateValue reports whether anything below v was replaced. When nothing
// was, the original value is returned untouched.
func decorateValue(v reflect.Value) (any, bool) {
	if !v.IsValid() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		switch f := v.Float(); {
		case math.IsInf(f, 1):
			return "inf", true
		case math.IsInf(f, -1):
			return "-inf", true
		}
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			if inner, changed := decorateValue(v.Elem()); changed {
				return inner, true
			}
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String || v.IsNil() {
			break
		}
		out := make(map[string]any, v.Len())
		changed := false
		iter := v.MapRange()
		for iter.Next() {
			item, itemChanged := decorateValue(iter.Value())
			out[iter.Key().String()] = item
			changed = changed || itemChanged
		}
		if changed {
			return out, true
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			break
		}
		out := make([]any, v.Len())
		changed := false
		for i := range v.Len() {
			item, itemChanged := decorateValue(v.Index(i))
			out[i] = item
			changed = changed || itemChanged
		}
		if changed {
			return out, true
		}
	}
	return v.Interface(), false
}

// Encode serializes a request into its canonical wire form. The result carries
// no trailing newline; framing is the transport's job. The request should
// already be decorated: non-finite numbers are rejected.
func Encode(r Request) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	text, err := marshal(r.onWire())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return text, nil
}

// wireRequest keeps an empty, non-nil argument map on the wire as {} while a
// nil map is left out entirely.
type wireRequest struct {
	Type      string          `json:"Type"`
	Name      string          `json:"Name"`
	Method    string          `json:"Method"`
	Arguments *map[string]any `json:"Arguments,omitempty"`
}

func (r Request) onWire() wireRequest {
	out := wireRequest{Type: r.Type, Name: r.Name, Method: r.Method}
	if r.Arguments != nil {
		out.Arguments = &r.Arguments
	}
	return out
}

// Prepare decorates and encodes a request in one step.
func Prepare(r Request) (string, error) {
	return Encode(Decorate(r))
}

// ParseRequest recovers a request from its serialized form.
func ParseRequest(text string) (Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(text), &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
