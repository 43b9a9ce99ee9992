package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	cur, err := s.displayCurrency(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	conv := s.rates.Conversion(cur)

	sorted := s.ledger.Sorted()
	views := make([]transactionView, 0, len(sorted))
	for _, tx := range sorted {
		v, err := newTransactionView(tx, conv)
		if err != nil {
			s.conversionFailed(w, r, err)
			return
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, transactionList{
		Transactions: views,
		Count:        len(views),
		Currency:     conv.Currency(),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	in, err := parseTransactionInput(w, r)
	if err != nil {
		if errors.Is(err, errMalformedBody) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tx, err := s.ledger.Add(r.Context(), in)
	if err != nil {
		logger.Info("Transaction rejected",
			applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" || !s.ledger.Delete(r.Context(), id) {
		writeError(w, http.StatusNotFound, core.ErrTransactionNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary returns the aggregates in the requested display currency.
// Without a rate snapshot the amounts are reported unconverted.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	cur, err := s.displayCurrency(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, version := s.ledger.View()
	snap := s.rates.Current()
	conv := core.DisplayConversion(cur, snap)

	resp, err := s.summaries.GetOrCompute(summaryKey(version, conv, snap), func() (summaryResponse, error) {
		return buildSummary(txs, conv)
	})
	if err != nil {
		s.conversionFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// summaryKey identifies a summary by every input it is derived from.
func summaryKey(version uint64, conv core.Conversion, snap *core.Snapshot) string {
	var stamp int64
	if snap != nil {
		stamp = snap.LastUpdated.UnixNano()
	}
	return fmt.Sprintf("%d|%s|%d", version, conv.Currency(), stamp)
}

func buildSummary(txs []core.Transaction, conv core.Conversion) (summaryResponse, error) {
	sum, err := ledger.Summarize(txs, conv)
	if err != nil {
		return summaryResponse{}, err
	}
	income, err := ledger.TotalsByCategory(txs, core.Income, conv)
	if err != nil {
		return summaryResponse{}, err
	}
	expenses, err := ledger.TotalsByCategory(txs, core.Expense, conv)
	if err != nil {
		return summaryResponse{}, err
	}
	return summaryResponse{
		Summary: sum,
		Formatted: formattedSummary{
			Income:   core.FormatMoney(sum.Income, sum.Currency),
			Expenses: core.FormatMoney(sum.Expenses, sum.Currency),
			Balance:  core.FormatMoney(sum.Balance, sum.Currency),
		},
		IncomeByCategory:   income,
		ExpensesByCategory: expenses,
	}, nil
}

func (s *Server) conversionFailed(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).Error("Conversion failed", applog.FieldError, err)
	if errors.Is(err, core.ErrUnknownCurrency) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "conversion failed")
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Currencies)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Income:  core.Income.Categories(),
		Expense: core.Expense.Categories(),
	})
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	cur := s.prefs.Currency()
	writeJSON(w, http.StatusOK, currencyResponse{Currency: cur, Symbol: core.Symbol(cur)})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.prefs.SetCurrency(r.Context(), core.Currency(req.Currency)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	cur := s.prefs.Currency()
	applog.FromContext(r.Context()).Info("Display currency changed", applog.FieldCurrency, cur)
	writeJSON(w, http.StatusOK, currencyResponse{Currency: cur, Symbol: core.Symbol(cur)})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeResponse{Theme: s.prefs.Theme(), Dark: s.prefs.IsDark()})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	dark := s.prefs.ToggleTheme(r.Context())
	writeJSON(w, http.StatusOK, themeResponse{Theme: s.prefs.Theme(), Dark: dark})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newRatesResponse(s.rates.Current(), s.rates.Status()))
}

// handleRefreshRates forces a refresh. A failed fetch keeps the previous
// snapshot, which is still returned alongside the error.
func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	err := s.rates.Refresh(r.Context())
	resp := newRatesResponse(s.rates.Current(), s.rates.Status())
	if err != nil {
		applog.FromContext(r.Context()).Warn("Rate refresh failed",
			applog.FieldOperation, applog.OpRefresh, applog.FieldError, err)
		if resp.Error == "" {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
