package http

import (
	"encoding/json"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/rates"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// transactionView is a stored transaction plus its presentation in the
// display currency.
type transactionView struct {
	core.Transaction
	DisplayAmount   float64       `json:"displayAmount"`
	DisplayCurrency core.Currency `json:"displayCurrency"`
	FormattedAmount string        `json:"formattedAmount"`
	FormattedDate   string        `json:"formattedDate"`
}

func newTransactionView(tx core.Transaction, conv core.Conversion) (transactionView, error) {
	amount, err := conv.Apply(tx.Amount)
	if err != nil {
		return transactionView{}, err
	}
	return transactionView{
		Transaction:     tx,
		DisplayAmount:   amount,
		DisplayCurrency: conv.Currency(),
		FormattedAmount: core.FormatMoney(amount, conv.Currency()),
		FormattedDate:   core.FormatDate(tx.Date.Format(time.RFC3339Nano)),
	}, nil
}

type transactionList struct {
	Transactions []transactionView `json:"transactions"`
	Count        int               `json:"count"`
	Currency     core.Currency     `json:"currency"`
}

type summaryResponse struct {
	core.Summary
	Formatted          formattedSummary      `json:"formatted"`
	IncomeByCategory   []core.CategoryAmount `json:"incomeByCategory"`
	ExpensesByCategory []core.CategoryAmount `json:"expensesByCategory"`
}

type formattedSummary struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Balance  string `json:"balance"`
}

type categoriesResponse struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

type currencyResponse struct {
	Currency core.Currency `json:"currency"`
	Symbol   string        `json:"symbol"`
}

type themeResponse struct {
	Theme string `json:"theme"`
	Dark  bool   `json:"dark"`
}

type ratesResponse struct {
	Base        core.Currency             `json:"base"`
	Rates       map[core.Currency]float64 `json:"rates"`
	LastUpdated *time.Time                `json:"lastUpdated,omitempty"`
	Loading     bool                      `json:"loading"`
	Stale       bool                      `json:"stale"`
	Error       string                    `json:"error,omitempty"`
	LastAttempt *time.Time                `json:"lastAttempt,omitempty"`
}

func newRatesResponse(snap *core.Snapshot, st rates.Status) ratesResponse {
	resp := ratesResponse{
		Base:    core.Base,
		Rates:   map[core.Currency]float64{},
		Loading: st.Loading,
		Stale:   st.Stale,
	}
	if snap != nil {
		resp.Rates = snap.Rates
		at := snap.LastUpdated
		resp.LastUpdated = &at
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	if !st.LastAttempt.IsZero() {
		at := st.LastAttempt
		resp.LastAttempt = &at
	}
	return resp
}
