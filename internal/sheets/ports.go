// Package sheets defines the export ports used to mirror the ledger into a
// spreadsheet.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionDeleter removes the exported row of a transaction. Deleting
	// an id that was never exported is not an error.
	TransactionDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	Exporter interface {
		TransactionWriter
		TransactionDeleter
	}
)

// Row returns the exported columns of tx: date, type, category,
// description, amount, id.
func Row(tx core.Transaction) []any {
	return []any{
		tx.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		string(tx.Type),
		tx.Category,
		tx.Description,
		tx.Amount,
		tx.ID,
	}
}
