package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Update is the envelope of one change notification. It is immutable once
// built and only lives for the duration of a broadcast.
type Update struct {
	category Category
	action   string
	data     any
}

// NewUpdate builds an envelope. It does not check the action vocabulary;
// that policy belongs to the broadcaster.
func NewUpdate(category Category, action string, data any) Update {
	return Update{category: category, action: action, data: data}
}

func (u Update) Category() Category { return u.category }
func (u Update) Action() string     { return u.action }
func (u Update) Data() any          { return u.data }

// EventName is the wire event the update travels under.
func (u Update) EventName() string {
	return u.category.EventName()
}

// MarshalJSON renders the wire payload, e.g. {"action":"created","data":{...}}
// or {"type":"stats","data":{...}} for the dashboard. A nil data becomes {}.
func (u Update) MarshalJSON() ([]byte, error) {
	data, err := encodeData(u.data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		u.category.ActionKey(): u.action,
		"data":                 data,
	})
}

var emptyObject = json.RawMessage(`{}`)

func encodeData(data any) (json.RawMessage, error) {
	var raw []byte
	switch v := data.(type) {
	case nil:
		return emptyObject, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyObject, nil
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: got %.40s", ErrInvalidPayload, trimmed)
	}
	return json.RawMessage(trimmed), nil
}

// ValidateData reports whether data can be carried by an Update.
func ValidateData(data any) error {
	_, err := encodeData(data)
	return err
}
