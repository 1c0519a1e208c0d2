package peer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/whatsfordinner/dinner/internal/dish"
)

var (
	// ErrEncode is returned when the list cannot be serialized.
	ErrEncode = errors.New("failed to encode sync payload")

	// ErrDecode is returned when a received payload cannot be parsed.
	ErrDecode = errors.New("failed to decode sync payload")
)

// Payload is what the phone sends to its companion. DishesData holds the
// JSON dish array and travels base64-encoded inside the JSON payload.
type Payload struct {
	DishesData           []byte `json:"dishesData"`
	DaysInsteadOfNumbers bool   `json:"daysInsteadOfNumbers"`
}

// EncodePayload serializes the list and the day-label flag.
func EncodePayload(list []dish.Dish, daysInsteadOfNumbers bool) ([]byte, error) {
	dishesData, err := dish.EncodeList(list)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	data, err := json.Marshal(Payload{
		DishesData:           dishesData,
		DaysInsteadOfNumbers: daysInsteadOfNumbers,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

// DecodePayload parses a payload produced by EncodePayload.
func DecodePayload(data []byte) ([]dish.Dish, bool, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if p.DishesData == nil {
		return nil, false, fmt.Errorf("%w: missing dishesData", ErrDecode)
	}
	list, err := dish.DecodeList(p.DishesData)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return list, p.DaysInsteadOfNumbers, nil
}

// EnvelopeType names a WebSocket frame.
type EnvelopeType string

const (
	// EnvelopeMessage carries a payload delivered immediately.
	EnvelopeMessage EnvelopeType = "message"

	// EnvelopeContext carries the pending context on connect.
	EnvelopeContext EnvelopeType = "context"

	// EnvelopeRequestDishes is sent by the companion to ask for a push.
	EnvelopeRequestDishes EnvelopeType = "requestDishes"
)

// Envelope is one WebSocket frame.
type Envelope struct {
	Type      EnvelopeType    `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func marshalEnvelope(typ EnvelopeType, payload []byte) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      json.RawMessage(payload),
	})
}
