package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ChangeMessage announces that a storage key was written. It carries only the
// key; consumers read the current value from the store.
type ChangeMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(key string) *ChangeMessage {
	return &ChangeMessage{
		Key:       key,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Key == "" {
		return nil, errors.New("change message without key")
	}
	return &msg, nil
}
