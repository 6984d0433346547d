package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spendtrack/internal/core"
)

// EventType names what happened to the transaction collection.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventBudgetsUpdated     EventType = "budgets.updated"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTransactionCreated, EventTransactionDeleted, EventBudgetsUpdated:
		return true
	}
	return false
}

// TransactionEvent is published after every committed change. Created
// events carry the full transaction so consumers need no store access to
// export it; Year and Month name the budget period affected.
type TransactionEvent struct {
	MessageID     string            `json:"messageId"`
	Type          EventType         `json:"type"`
	TransactionID string            `json:"transactionId,omitempty"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	Year          int               `json:"year"`
	Month         int               `json:"month"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewTransactionCreated builds the event for a stored transaction.
func NewTransactionCreated(t core.Transaction) *TransactionEvent {
	tx := t
	tx.Receipt = ""
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		Type:          EventTransactionCreated,
		TransactionID: t.ID,
		Transaction:   &tx,
		Year:          t.Date.Year(),
		Month:         int(t.Date.Month()),
		Timestamp:     time.Now(),
	}
}

// NewTransactionDeleted builds the event for a removed transaction.
func NewTransactionDeleted(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		Type:          EventTransactionDeleted,
		TransactionID: t.ID,
		Year:          t.Date.Year(),
		Month:         int(t.Date.Month()),
		Timestamp:     time.Now(),
	}
}

// NewBudgetsUpdated builds the event for a replaced budget map; the
// affected period is the month of now.
func NewBudgetsUpdated(now time.Time) *TransactionEvent {
	return &TransactionEvent{
		MessageID: uuid.NewString(),
		Type:      EventBudgetsUpdated,
		Year:      now.Year(),
		Month:     int(now.Month()),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.Type == EventTransactionCreated && msg.Transaction == nil {
		return nil, fmt.Errorf("created event %s has no transaction", msg.MessageID)
	}
	return &msg, nil
}
