package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

var ErrInvalidMessage = errors.New("invalid ledger event message")

// NewEventMessage creates a ledger event stamped with the current time.
func NewEventMessage(kind core.EventKind, tx core.Transaction) core.TransactionEvent {
	return core.TransactionEvent{
		Kind:        kind,
		Transaction: tx,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func ToJSON(e core.TransactionEvent) ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and checks that it names a known kind and a
// transaction id.
func EventFromJSON(data []byte) (core.TransactionEvent, error) {
	var e core.TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return core.TransactionEvent{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch e.Kind {
	case core.EventAdded, core.EventDeleted:
	default:
		return core.TransactionEvent{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, e.Kind)
	}
	if e.Transaction.ID == "" {
		return core.TransactionEvent{}, fmt.Errorf("%w: missing transaction id", ErrInvalidMessage)
	}
	return e, nil
}
