package core

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const maxDescriptionLen = 200

type (
	TransactionType string

	// Transaction is one money movement. Amount is always denominated in the
	// base currency, whatever the display currency is.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      float64         `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
	}

	// TransactionInput holds the caller-supplied fields of a new transaction.
	// ID and Date are assigned by the ledger.
	TransactionInput struct {
		Type        TransactionType `json:"type"`
		Amount      float64         `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
	}
)

var (
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// IncomeCategories and ExpenseCategories are suggestions only; any label is accepted.
var (
	IncomeCategories  = []string{"Salary", "Freelance", "Gift", "Other"}
	ExpenseCategories = []string{"Food", "Transport", "Entertainment", "Health", "Utilities", "Other"}
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Categories returns the suggested categories for the transaction type.
func (t TransactionType) Categories() []string {
	switch t {
	case Income:
		return append([]string(nil), IncomeCategories...)
	case Expense:
		return append([]string(nil), ExpenseCategories...)
	default:
		return nil
	}
}

func (in TransactionInput) Validate() error {
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount < 0 {
		return ErrInvalidAmount
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// Normalize trims surrounding whitespace from the free-form fields.
func (in TransactionInput) Normalize() TransactionInput {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Build turns validated input into a transaction with the given identity.
func (in TransactionInput) Build(id string, at time.Time) Transaction {
	return Transaction{
		ID:          id,
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        at.UTC().Truncate(time.Millisecond),
	}
}
