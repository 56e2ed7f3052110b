// Package validation checks client payloads before anything is stored.
// Every failure is an *Error whose message is returned to the client as is.
package validation

import (
	"encoding/json"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"finzora/api/models"
)

const (
	MaxTransactionAmount = 10_000_000
	MaxDescriptionLength = 100
	MaxStockQuantity     = 1_000_000
	MaxStockBuyPrice     = 100_000
	MaxSymbolLength      = 10
	MaxSymbolSuffix      = 3
)

type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(msg string) error { return &Error{Message: msg} }

// ParseNumber accepts JSON numbers and numeric strings. ok is false when v is
// missing or not a number; present reports whether v held anything at all.
func ParseNumber(v any) (n float64, present, ok bool) {
	switch t := v.(type) {
	case nil:
		return 0, false, false
	case float64:
		return t, true, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true, true
	case int:
		return float64(t), true, true
	case int64:
		return float64(t), true, true
	case json.Number:
		f, err := t.Float64()
		return f, true, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, true, false
		}
		return f, true, true
	default:
		return 0, true, false
	}
}

func label(kind string) string {
	if kind == "" {
		return ""
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

// Amount validates a positive amount below the transaction ceiling.
func Amount(kind string, v any) (float64, error) {
	name := label(kind)
	amount, present, ok := ParseNumber(v)
	if !present {
		return 0, fail(name + " amount is required")
	}
	if !ok {
		return 0, fail(name + " amount must be a valid number")
	}
	if amount <= 0 {
		return 0, fail(name + " amount must be greater than zero")
	}
	if amount > MaxTransactionAmount {
		return 0, fail(name + " amount exceeds maximum limit")
	}
	return amount, nil
}

// Transaction validates an income (source) or expense (merchant) payload.
func Transaction(kind string, amount any, counterparty string) (float64, error) {
	value, err := Amount(kind, amount)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(counterparty) == "" {
		field := "source"
		if kind == models.TypeExpense {
			field = "merchant"
		}
		return 0, fail(label(kind) + " " + field + " is required")
	}
	if utf8.RuneCountInString(counterparty) > MaxDescriptionLength {
		return 0, fail("Description is too long (max 100 characters)")
	}
	return value, nil
}

// validSymbol allows a ticker of up to MaxSymbolLength characters with an
// optional exchange suffix such as ".NS" or ".BO".
func validSymbol(symbol string) bool {
	base, suffix, dotted := strings.Cut(symbol, ".")
	if !alnum(base) || len(base) > MaxSymbolLength {
		return false
	}
	if dotted && (!alnum(suffix) || len(suffix) > MaxSymbolSuffix) {
		return false
	}
	return true
}

func alnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

type Holding struct {
	Symbol   string
	Quantity float64
	BuyPrice float64
}

// Stock validates a stock purchase: a ticker, a whole share count and a sane
// buy price. The returned symbol is upper-cased.
func Stock(symbol string, quantity, buyPrice any) (*Holding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fail("Stock symbol is required")
	}
	if !validSymbol(symbol) {
		return nil, fail("Invalid stock symbol format")
	}

	qty, present, ok := ParseNumber(quantity)
	switch {
	case !present:
		return nil, fail("Stock quantity is required")
	case !ok || qty != math.Trunc(qty):
		return nil, fail("Stock quantity must be a whole number")
	case qty <= 0:
		return nil, fail("Stock quantity must be greater than zero")
	case qty > MaxStockQuantity:
		return nil, fail("Stock quantity exceeds reasonable limit")
	}

	price, err := buyPriceOf("Stock", buyPrice)
	if err != nil {
		return nil, err
	}
	if price > MaxStockBuyPrice {
		return nil, fail("Stock buy price seems unreasonable")
	}
	return &Holding{Symbol: symbol, Quantity: qty, BuyPrice: price}, nil
}

// Crypto validates a coin purchase. Quantities may be fractional.
func Crypto(symbol string, quantity, buyPrice any) (*Holding, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fail("Crypto symbol is required")
	}

	qty, present, ok := ParseNumber(quantity)
	switch {
	case !present:
		return nil, fail("Crypto quantity is required")
	case !ok:
		return nil, fail("Crypto quantity must be a valid number")
	case qty <= 0:
		return nil, fail("Crypto quantity must be greater than zero")
	}

	price, err := buyPriceOf("Crypto", buyPrice)
	if err != nil {
		return nil, err
	}
	return &Holding{Symbol: symbol, Quantity: qty, BuyPrice: price}, nil
}

func buyPriceOf(kind string, v any) (float64, error) {
	price, present, ok := ParseNumber(v)
	switch {
	case !present:
		return 0, fail(kind + " buy price is required")
	case !ok:
		return 0, fail(kind + " buy price must be a valid number")
	case price <= 0:
		return 0, fail(kind + " buy price must be greater than zero")
	}
	return price, nil
}

// Date accepts an ISO date, with or without a time part. Empty is allowed;
// the store fills in today.
func Date(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := models.ParseDate(s); err != nil {
		return fail("Date must be in YYYY-MM-DD format")
	}
	return nil
}

func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fail("Email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
		return "", fail("Invalid email address")
	}
	return strings.ToLower(s), nil
}

var alertTypes = map[string]bool{
	models.AlertTarget: true,
	models.AlertProfit: true,
	models.AlertLoss:   true,
}

func Alert(symbol, alertType string, value any) (float64, error) {
	if strings.TrimSpace(symbol) == "" {
		return 0, fail("Alert symbol is required")
	}
	if !alertTypes[alertType] {
		return 0, fail("Alert type must be one of target, profit, loss")
	}
	v, present, ok := ParseNumber(value)
	if !present || !ok || v <= 0 {
		return 0, fail("Alert value must be a positive number")
	}
	return v, nil
}

func Budget(category string, limit any) (float64, error) {
	v, present, ok := ParseNumber(limit)
	if strings.TrimSpace(category) == "" || !present {
		return 0, fail("Missing category or limit")
	}
	if !ok || v <= 0 {
		return 0, fail("Budget limit must be greater than zero")
	}
	return v, nil
}

// Sanitize trims input and strips characters commonly used for markup or
// query injection.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	for _, bad := range []string{"<", ">", "\"", ";", "--", "/*", "*/"} {
		s = strings.ReplaceAll(s, bad, "")
	}
	return s
}
