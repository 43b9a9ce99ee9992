package ledger

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func snapshot(t *testing.T, usd, eur float64) *core.Snapshot {
	t.Helper()
	s, err := core.NewSnapshot(map[core.Currency]float64{core.USD: usd, core.EUR: eur}, time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return s
}

func tx(id string, typ core.TransactionType, amount float64, at time.Time) core.Transaction {
	return core.Transaction{ID: id, Type: typ, Amount: amount, Date: at}
}

func TestSummarizeBaseCurrency(t *testing.T) {
	now := time.Now()
	txs := []core.Transaction{
		tx("1", core.Income, 1000, now),
		tx("2", core.Expense, 500, now),
	}
	s, err := Summarize(txs, core.NoConversion())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Income != 1000 || s.Expenses != 500 || s.Balance != 500 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Currency != core.Base || s.Converted {
		t.Fatalf("expected unconverted base summary, got %+v", s)
	}
}

func TestSummarizeConverted(t *testing.T) {
	now := time.Now()
	txs := []core.Transaction{
		tx("1", core.Income, 4000, now),
		tx("2", core.Expense, 2000, now),
	}
	s, err := Summarize(txs, core.DisplayConversion(core.USD, snapshot(t, 40, 43)))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Income != 100 || s.Expenses != 50 || s.Balance != 50 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Currency != core.USD || !s.Converted {
		t.Fatalf("expected USD conversion, got %+v", s)
	}
}

func TestSummarizeWithoutSnapshotIsIdentity(t *testing.T) {
	txs := []core.Transaction{tx("1", core.Income, 4000, time.Now())}
	s, err := Summarize(txs, core.DisplayConversion(core.USD, nil))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Income != 4000 || s.Converted {
		t.Fatalf("expected identity conversion, got %+v", s)
	}
}

func TestSummarizeUnknownCurrency(t *testing.T) {
	txs := []core.Transaction{tx("1", core.Income, 1, time.Now())}
	_, err := Summarize(txs, core.DisplayConversion("GBP", snapshot(t, 40, 43)))
	if !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}

func TestBalanceInvariantAfterMutations(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, memory.New(), nil)
	snap := snapshot(t, 41.25, 44.8)
	convs := []core.Conversion{
		core.NoConversion(),
		core.DisplayConversion(core.UAH, snap),
		core.DisplayConversion(core.USD, snap),
		core.DisplayConversion(core.EUR, snap),
		core.DisplayConversion(core.EUR, nil),
	}

	check := func() {
		t.Helper()
		for _, conv := range convs {
			s, err := l.Summary(conv)
			if err != nil {
				t.Fatalf("Summary: %v", err)
			}
			if math.Abs(s.Balance-(s.Income-s.Expenses)) > 1e-9 {
				t.Fatalf("balance %v != %v - %v", s.Balance, s.Income, s.Expenses)
			}
		}
	}

	amounts := []float64{1200.5, 33.3, 0, 99.99, 1e6}
	var ids []string
	for i, a := range amounts {
		typ := core.Income
		if i%2 == 1 {
			typ = core.Expense
		}
		tx, err := l.Add(ctx, core.TransactionInput{Type: typ, Amount: a})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		ids = append(ids, tx.ID)
		check()
	}
	for _, id := range ids {
		l.Delete(ctx, id)
		check()
	}
}

func TestSortByDateDesc(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("a", core.Income, 1, base),
		tx("b", core.Income, 1, base.Add(2*time.Hour)),
		tx("c", core.Expense, 1, base.Add(time.Hour)),
		tx("d", core.Expense, 1, base.Add(2*time.Hour)),
		tx("e", core.Expense, 1, base),
	}
	got := SortByDateDesc(txs)

	want := []string{"b", "d", "c", "a", "e"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if txs[0].ID != "a" || txs[1].ID != "b" {
		t.Fatalf("input slice was mutated")
	}
}

func TestLedgerSortedIsPermutation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, memory.New(), nil)
	for i := 0; i < 10; i++ {
		if _, err := l.Add(ctx, core.TransactionInput{Type: core.Expense, Amount: float64(i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	sorted := l.Sorted()
	inserted := l.Transactions()
	if len(sorted) != len(inserted) {
		t.Fatalf("length mismatch")
	}
	for i := range sorted {
		if sorted[i].ID != inserted[len(inserted)-1-i].ID {
			t.Fatalf("position %d: not in reverse insertion order", i)
		}
		if i > 0 && sorted[i].Date.After(sorted[i-1].Date) {
			t.Fatalf("not sorted by date desc at %d", i)
		}
	}
}

func TestTotalsByCategory(t *testing.T) {
	now := time.Now()
	txs := []core.Transaction{
		{ID: "1", Type: core.Expense, Amount: 10, Category: "Food", Date: now},
		{ID: "2", Type: core.Expense, Amount: 30, Category: "Transport", Date: now},
		{ID: "3", Type: core.Expense, Amount: 25, Category: "Food", Date: now},
		{ID: "4", Type: core.Expense, Amount: 35, Category: "Health", Date: now},
		{ID: "5", Type: core.Income, Amount: 100, Category: "Salary", Date: now},
	}
	got, err := TotalsByCategory(txs, core.Expense, core.NoConversion())
	if err != nil {
		t.Fatalf("TotalsByCategory: %v", err)
	}
	want := []core.CategoryAmount{{Name: "Food", Amount: 35}, {Name: "Health", Amount: 35}, {Name: "Transport", Amount: 30}}
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
