// Package protocol defines the messages exchanged between the background
// and foreground contexts.
//
// Background → Foreground:
//   - handshake: the JSON string "hi", sent once before anything else
//   - snapshot: {"elements":[...]} after every commit
//
// Foreground → Background:
//   - click: {"click": <button id>}
//
// The handshake is a JSON string while every snapshot is a JSON object, so
// the two can be told apart by type alone.
package protocol

import (
	"errors"
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/workerview/internal/domain/snapshot"
)

// HandshakeSentinel is the payload of the handshake message
const HandshakeSentinel = "hi"

// ErrMalformedMessage marks a message that does not fit the protocol
var ErrMalformedMessage = errors.New("malformed message")

var handshake = []byte(`"` + HandshakeSentinel + `"`)

// Handshake returns the encoded handshake message
func Handshake() []byte {
	return append([]byte(nil), handshake...)
}

// EncodeSnapshot encodes a commit payload
func EncodeSnapshot(p snapshot.Payload) ([]byte, error) {
	data, err := sonic.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Downstream is a decoded background → foreground message
type Downstream struct {
	Handshake bool
	Snapshot  *snapshot.Payload
}

// DecodeDownstream classifies and decodes a background → foreground message
func DecodeDownstream(data []byte) (Downstream, error) {
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Downstream{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch v := raw.(type) {
	case string:
		if v != HandshakeSentinel {
			return Downstream{}, fmt.Errorf("%w: unexpected string %q", ErrMalformedMessage, v)
		}
		return Downstream{Handshake: true}, nil
	case map[string]any:
		var p snapshot.Payload
		if err := sonic.Unmarshal(data, &p); err != nil {
			return Downstream{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return Downstream{Snapshot: &p}, nil
	}
	return Downstream{}, fmt.Errorf("%w: unexpected %T", ErrMalformedMessage, raw)
}

// Click is a decoded foreground → background activation request
type Click struct {
	Value float64
}

// ID returns the button identifier. A number that is not a whole int can
// never match a button, so it reports false.
func (c Click) ID() (int, bool) {
	if c.Value != math.Trunc(c.Value) || c.Value < math.MinInt32 || c.Value > math.MaxInt32 {
		return 0, false
	}
	return int(c.Value), true
}

type clickWire struct {
	Click int `json:"click"`
}

// EncodeClick encodes an activation of button id
func EncodeClick(id int) ([]byte, error) {
	data, err := sonic.Marshal(clickWire{Click: id})
	if err != nil {
		return nil, fmt.Errorf("encode click: %w", err)
	}
	return data, nil
}

// DecodeClick decodes a foreground → background message. Anything that is
// not an object with a numeric "click" field is ErrMalformedMessage.
func DecodeClick(data []byte) (Click, error) {
	var raw map[string]any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Click{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	v, ok := raw["click"]
	if !ok {
		return Click{}, fmt.Errorf("%w: missing click field", ErrMalformedMessage)
	}
	n, ok := v.(float64)
	if !ok {
		return Click{}, fmt.Errorf("%w: click must be a number, got %T", ErrMalformedMessage, v)
	}
	return Click{Value: n}, nil
}
