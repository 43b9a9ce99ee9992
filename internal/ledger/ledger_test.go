package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e core.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// newTestLedger returns a loaded ledger whose clock advances one second per call.
func newTestLedger(t *testing.T, store storage.Store, pub Publisher) *Ledger {
	t.Helper()
	l := New(store, pub)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var n int
	l.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	l.Load(context.Background())
	return l
}

func stored(t *testing.T, s *memory.Store) []core.Transaction {
	t.Helper()
	raw, ok, _ := s.Get(context.Background(), storage.KeyTransactions)
	if !ok {
		t.Fatalf("nothing persisted")
	}
	var txs []core.Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		t.Fatalf("persisted data is not JSON: %v", err)
	}
	return txs
}

func TestAddAssignsIdentityAndPersists(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := newTestLedger(t, store, nil)

	tx, err := l.Add(ctx, core.TransactionInput{Type: core.Income, Amount: 1000, Category: " Salary ", Description: "March"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tx.ID == "" || tx.Date.IsZero() {
		t.Fatalf("expected id and date, got %+v", tx)
	}
	if tx.Category != "Salary" {
		t.Fatalf("expected trimmed category, got %q", tx.Category)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 transaction, got %d", l.Len())
	}

	persisted := stored(t, store)
	if len(persisted) != 1 || persisted[0].ID != tx.ID || !persisted[0].Date.Equal(tx.Date) {
		t.Fatalf("unexpected persisted data %+v", persisted)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := newTestLedger(t, store, nil)

	tests := []struct {
		name string
		in   core.TransactionInput
		want error
	}{
		{"bad type", core.TransactionInput{Type: "transfer", Amount: 1}, core.ErrInvalidType},
		{"negative", core.TransactionInput{Type: core.Expense, Amount: -1}, core.ErrInvalidAmount},
		{"nan", core.TransactionInput{Type: core.Expense, Amount: math.NaN()}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.Add(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if l.Len() != 0 || store.Len() != 0 {
		t.Fatalf("invalid input must not mutate the ledger or the store")
	}
}

func TestAddIssuesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, memory.New(), nil)
	l.newID = core.NewID

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		before := l.Len()
		tx, err := l.Add(ctx, core.TransactionInput{Type: core.Expense, Amount: float64(i)})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if l.Len() != before+1 {
			t.Fatalf("length did not grow by one")
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := newTestLedger(t, store, nil)

	a, _ := l.Add(ctx, core.TransactionInput{Type: core.Income, Amount: 10})
	b, _ := l.Add(ctx, core.TransactionInput{Type: core.Expense, Amount: 5})

	if l.Delete(ctx, "missing") {
		t.Fatalf("deleting an unknown id should report false")
	}
	if l.Len() != 2 {
		t.Fatalf("unknown id changed the length")
	}

	if !l.Delete(ctx, a.ID) {
		t.Fatalf("expected delete to succeed")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 transaction, got %d", l.Len())
	}
	if _, err := l.Get(a.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("deleted transaction still present")
	}
	persisted := stored(t, store)
	if len(persisted) != 1 || persisted[0].ID != b.ID {
		t.Fatalf("unexpected persisted data %+v", persisted)
	}

	if !l.Delete(ctx, b.ID) {
		t.Fatalf("expected delete to succeed")
	}
	raw, _, _ := store.Get(ctx, storage.KeyTransactions)
	if raw != "[]" {
		t.Fatalf("expected empty array persisted, got %q", raw)
	}
}

func TestLoadMalformedDataYieldsEmptyLedger(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{not json", `"a string"`, `{"id":"1"}`} {
		store := memory.New()
		_ = store.Set(ctx, storage.KeyTransactions, raw)

		l := New(store, nil)
		l.Load(ctx)
		if !l.Loaded() || l.Len() != 0 {
			t.Fatalf("raw %q: expected empty loaded ledger, got %d", raw, l.Len())
		}
	}
}

func TestLoadSkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.Set(ctx, storage.KeyTransactions,
		`[{"id":"1","type":"income","amount":5,"category":"Gift","description":"","date":"2024-01-01T00:00:00.000Z"},
		  {"id":"","type":"income","amount":1},
		  {"id":"3","type":"loan","amount":1}]`)

	l := New(store, nil)
	l.Load(ctx)
	if l.Len() != 1 {
		t.Fatalf("expected 1 valid transaction, got %d", l.Len())
	}
}

func TestLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := newTestLedger(t, store, nil)
	for i := 0; i < 3; i++ {
		if _, err := l.Add(ctx, core.TransactionInput{Type: core.Expense, Amount: 1.5, Category: fmt.Sprint(i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	reloaded := New(store, nil)
	reloaded.Load(ctx)
	got, want := reloaded.Transactions(), l.Transactions()
	if len(got) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || !got[i].Date.Equal(want[i].Date) {
			t.Fatalf("record %d differs: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestStorageFailuresAreNotSurfaced(t *testing.T) {
	ctx := context.Background()
	l := New(failingStore{}, nil)
	l.Load(ctx)
	if !l.Loaded() || l.Len() != 0 {
		t.Fatalf("read failure should degrade to an empty ledger")
	}

	tx, err := l.Add(ctx, core.TransactionInput{Type: core.Income, Amount: 1})
	if err != nil {
		t.Fatalf("write failure must not fail Add: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("in-memory state must stay correct")
	}
	if !l.Delete(ctx, tx.ID) {
		t.Fatalf("write failure must not fail Delete")
	}
}

func TestEventsArePublished(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	l := newTestLedger(t, memory.New(), pub)

	tx, err := l.Add(ctx, core.TransactionInput{Type: core.Income, Amount: 1})
	if err != nil {
		t.Fatalf("publish failure must not fail Add: %v", err)
	}
	l.Delete(ctx, tx.ID)
	l.Delete(ctx, tx.ID)

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[0].Kind != core.EventAdded || pub.events[1].Kind != core.EventDeleted {
		t.Fatalf("unexpected kinds %s, %s", pub.events[0].Kind, pub.events[1].Kind)
	}
	if pub.events[1].Transaction.ID != tx.ID {
		t.Fatalf("deleted event should carry the removed transaction")
	}
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	l := New(memory.New(), nil)
	l.Load(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Add(ctx, core.TransactionInput{Type: core.Expense, Amount: 1})
		}()
	}
	wg.Wait()
	if l.Len() != 50 {
		t.Fatalf("expected 50 transactions, got %d", l.Len())
	}
}

func TestViewVersionTracksMutations(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, memory.New(), nil)

	_, v0 := l.View()
	tx, _ := l.Add(ctx, core.TransactionInput{Type: core.Income, Amount: 10})
	txs, v1 := l.View()
	if v1 <= v0 || len(txs) != 1 {
		t.Fatalf("add: version %d -> %d, len %d", v0, v1, len(txs))
	}

	if _, err := l.Add(ctx, core.TransactionInput{Type: core.Income, Amount: -1}); err == nil {
		t.Fatalf("expected validation error")
	}
	l.Delete(ctx, "missing")
	if _, v := l.View(); v != v1 {
		t.Fatalf("rejected mutations changed version %d -> %d", v1, v)
	}

	l.Delete(ctx, tx.ID)
	if _, v2 := l.View(); v2 <= v1 {
		t.Fatalf("delete: version %d -> %d", v1, v2)
	}
}
