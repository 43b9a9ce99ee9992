package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

type transactionRequest struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type currencyRequest struct {
	Currency string `json:"currency"`
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// parseTransactionInput decodes a transaction request. The amount may be a
// JSON number or a string such as "12,50".
func parseTransactionInput(w http.ResponseWriter, r *http.Request) (core.TransactionInput, error) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.TransactionInput{}, err
	}
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:      amount,
		Category:    req.Category,
		Description: req.Description,
	}, nil
}

func parseAmountField(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, core.ErrInvalidAmount
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, core.ErrInvalidAmount
		}
		return core.ParseAmount(s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f < 0 {
		return 0, core.ErrInvalidAmount
	}
	return f, nil
}

// displayCurrency resolves the ?currency= parameter, falling back to the
// saved preference.
func (s *Server) displayCurrency(r *http.Request) (core.Currency, error) {
	if v := strings.TrimSpace(r.URL.Query().Get("currency")); v != "" {
		return core.ParseCurrency(v)
	}
	return s.prefs.Currency(), nil
}
