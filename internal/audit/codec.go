package audit

import (
	"encoding/json"
	"fmt"
)

func Encode(e Event) ([]byte, error) {
	if !e.Action.IsValid() {
		return nil, ErrInvalidAction
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return b, nil
}

// Decode unmarshals an encoded event and re-validates the action so a
// poisoned queue entry fails loudly instead of being recorded as-is.
func Decode(b []byte) (Event, error) {
	if len(b) == 0 {
		return Event{}, ErrInvalidPayload
	}

	var e Event

	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if !e.Action.IsValid() {
		return Event{}, ErrInvalidAction
	}

	return e, nil
}
