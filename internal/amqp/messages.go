package amqp

import (
	"encoding/json"
	"time"
)

// Entities that appear in change messages.
const (
	EntityJemaat   = "jemaat"
	EntityKeluarga = "keluarga"
	EntityRayon    = "rayon"
)

// Operations that appear in change messages.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// PerubahanMessage announces a mutation to congregation data. Consumers
// use it to invalidate derived statistics; the payload deliberately
// carries no record data, only the identity of what changed.
type PerubahanMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPerubahanMessage(entity string, id int64, op string) *PerubahanMessage {
	return &PerubahanMessage{
		Entity:    entity,
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PerubahanMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PerubahanMessageFromJSON creates a message from JSON bytes
func PerubahanMessageFromJSON(data []byte) (*PerubahanMessage, error) {
	var msg PerubahanMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
