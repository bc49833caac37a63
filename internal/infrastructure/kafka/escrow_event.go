package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

const escrowEventVersion = 1

// EscrowEventMessage is the wire form of an escrow event on the topic.
type EscrowEventMessage struct {
	Version int `json:"v"`
	domain.EscrowEvent
}

// EncodeEscrowEvent keys the message by escrow id so one escrow's events share a partition.
func EncodeEscrowEvent(event domain.EscrowEvent) (domain.Message, error) {
	v, err := json.Marshal(EscrowEventMessage{Version: escrowEventVersion, EscrowEvent: event})
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{Key: []byte(event.EscrowID), Value: v}, nil
}

func DecodeEscrowEvent(msg domain.Message) (domain.EscrowEvent, error) {
	var m EscrowEventMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		return domain.EscrowEvent{}, fmt.Errorf("decode escrow event: %w", err)
	}
	if m.Version != escrowEventVersion {
		return domain.EscrowEvent{}, fmt.Errorf("unsupported escrow event version %d", m.Version)
	}
	if m.EscrowID == "" || !m.Type.Valid() {
		return domain.EscrowEvent{}, fmt.Errorf("malformed escrow event %q", m.ID)
	}
	return m.EscrowEvent, nil
}
