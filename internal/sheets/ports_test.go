package sheets

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestRow(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	tx := core.Transaction{
		ID: "tx-1", Type: core.Income, Amount: 1000, Category: "Salary", Description: "March",
		Date: time.Date(2024, 3, 1, 14, 0, 0, 5e6, loc),
	}
	row := Row(tx)
	want := []any{"2024-03-01T12:00:00.005Z", "income", "Salary", "March", 1000.0, "tx-1"}
	if len(row) != len(want) {
		t.Fatalf("unexpected row %v", row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("column %d: got %v, want %v", i, row[i], want[i])
		}
	}
}
