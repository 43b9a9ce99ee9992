// Package ledger keeps the transaction collection, persists it after every
// mutation and derives the income, expense and balance totals.
package ledger

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Publisher receives ledger events after they have been persisted.
type Publisher interface {
	Publish(ctx context.Context, event core.TransactionEvent) error
}

// Ledger is the in-memory transaction collection backed by a Store. The
// collection is kept in insertion order.
type Ledger struct {
	store     storage.Store
	publisher Publisher

	mu     sync.RWMutex
	txs    []core.Transaction
	loaded bool

	// version increases with every change to txs
	version uint64

	now   func() time.Time
	newID func() string
}

// New creates a ledger on top of store. publisher may be nil.
func New(store storage.Store, publisher Publisher) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		newID:     core.NewID,
	}
}

// Load replaces the in-memory collection with the persisted one. Missing or
// malformed data yields an empty ledger.
func (l *Ledger) Load(ctx context.Context) {
	txs := storage.LoadJSON[[]core.Transaction](ctx, l.store, storage.KeyTransactions, nil)

	valid := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" || !tx.Type.IsValid() {
			slog.WarnContext(ctx, "Skipping malformed stored transaction",
				"id", tx.ID, "type", tx.Type)
			continue
		}
		valid = append(valid, tx)
	}

	l.mu.Lock()
	l.txs = valid
	l.loaded = true
	l.version++
	l.mu.Unlock()

	slog.InfoContext(ctx, "Ledger loaded", "count", len(valid))
}

// Add validates in, records it with a fresh id and the current time and
// persists the collection before returning. Only validation errors are
// returned; storage and publish failures are logged.
func (l *Ledger) Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	tx := in.Build(l.newID(), l.now())
	l.txs = append(l.txs, tx)
	l.version++
	l.persistLocked(ctx)
	l.mu.Unlock()

	slog.InfoContext(ctx, "Transaction added",
		"id", tx.ID, "type", tx.Type, "amount", tx.Amount, "category", tx.Category)
	l.publish(ctx, core.EventAdded, tx)
	return tx, nil
}

// Delete removes the transaction with the given id and reports whether one
// was removed. Nothing is persisted when the id is unknown.
func (l *Ledger) Delete(ctx context.Context, id string) bool {
	l.mu.Lock()
	i := slices.IndexFunc(l.txs, func(tx core.Transaction) bool { return tx.ID == id })
	if i < 0 {
		l.mu.Unlock()
		return false
	}
	removed := l.txs[i]
	l.txs = slices.Delete(l.txs, i, i+1)
	l.version++
	l.persistLocked(ctx)
	l.mu.Unlock()

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	l.publish(ctx, core.EventDeleted, removed)
	return true
}

// Transactions returns a copy of the collection in insertion order.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.txs)
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id string) (core.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrTransactionNotFound
}

// View returns a copy of the collection together with its version. Two views
// with the same version hold the same transactions.
func (l *Ledger) View() ([]core.Transaction, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.txs), l.version
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// Loaded reports whether Load has completed at least once.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Sorted returns the transactions ordered by date, most recent first.
func (l *Ledger) Sorted() []core.Transaction {
	return SortByDateDesc(l.Transactions())
}

// Summary computes the totals of the current collection under conv.
func (l *Ledger) Summary(conv core.Conversion) (core.Summary, error) {
	return Summarize(l.Transactions(), conv)
}

// CategoryTotals sums the transactions of type t per category under conv.
func (l *Ledger) CategoryTotals(t core.TransactionType, conv core.Conversion) ([]core.CategoryAmount, error) {
	return TotalsByCategory(l.Transactions(), t, conv)
}

func (l *Ledger) persistLocked(ctx context.Context) {
	txs := l.txs
	if txs == nil {
		txs = []core.Transaction{}
	}
	if err := storage.SaveJSON(ctx, l.store, storage.KeyTransactions, txs); err != nil {
		slog.ErrorContext(ctx, "Failed to persist transactions",
			"count", len(txs), "error", err)
	}
}

func (l *Ledger) publish(ctx context.Context, kind core.EventKind, tx core.Transaction) {
	if l.publisher == nil {
		return
	}
	event := core.TransactionEvent{Kind: kind, Transaction: tx, Timestamp: l.now().UTC()}
	if err := l.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "id", tx.ID, "error", err)
	}
}
