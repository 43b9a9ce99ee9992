// Package memory is an in-process exporter used for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Exporter struct {
	mu    sync.Mutex
	rows  []core.Transaction
	added int
}

var _ ports.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Append stores the transaction and returns a synthetic row reference.
func (e *Exporter) Append(_ context.Context, tx core.Transaction) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, tx)
	e.added++
	return fmt.Sprintf("mem:%d", e.added), nil
}

func (e *Exporter) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = slices.DeleteFunc(e.rows, func(tx core.Transaction) bool { return tx.ID == id })
	return nil
}

// Rows returns the exported transactions in export order.
func (e *Exporter) Rows() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.rows)
}
