package ledger

import (
	"cmp"
	"fmt"
	"slices"

	"fintrack/internal/core"
)

// Summarize totals income and expenses of txs under conv. Balance is always
// Income - Expenses of the converted totals.
func Summarize(txs []core.Transaction, conv core.Conversion) (core.Summary, error) {
	s := core.Summary{
		Currency:  conv.Currency(),
		Converted: !conv.IsIdentity(),
	}
	for _, tx := range txs {
		amount, err := conv.Apply(tx.Amount)
		if err != nil {
			return core.Summary{}, fmt.Errorf("convert %s: %w", tx.ID, err)
		}
		switch tx.Type {
		case core.Income:
			s.Income += amount
		case core.Expense:
			s.Expenses += amount
		}
	}
	s.Balance = s.Income - s.Expenses
	return s, nil
}

// SortByDateDesc returns a copy of txs ordered by date, most recent first.
// Transactions with equal dates keep their relative order.
func SortByDateDesc(txs []core.Transaction) []core.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// TotalsByCategory sums the transactions of type t per category, largest
// first. Ties are ordered by name.
func TotalsByCategory(txs []core.Transaction, t core.TransactionType, conv core.Conversion) ([]core.CategoryAmount, error) {
	totals := make(map[string]float64)
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		amount, err := conv.Apply(tx.Amount)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", tx.ID, err)
		}
		totals[tx.Category] += amount
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}
