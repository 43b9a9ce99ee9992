package core

import "time"

// Summary holds the derived totals of a ledger in one currency.
type Summary struct {
	Income    float64  `json:"income"`
	Expenses  float64  `json:"expenses"`
	Balance   float64  `json:"balance"`
	Currency  Currency `json:"currency"`
	Converted bool     `json:"converted"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// EventKind names a ledger mutation.
type EventKind string

const (
	EventAdded   EventKind = "transaction.added"
	EventDeleted EventKind = "transaction.deleted"
)

// TransactionEvent is emitted after a ledger mutation has been persisted.
type TransactionEvent struct {
	Kind        EventKind   `json:"kind"`
	Transaction Transaction `json:"transaction"`
	Timestamp   time.Time   `json:"timestamp"`
}
