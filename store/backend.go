package store

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	IncomeCollection    = "income"
	ExpenseCollection   = "expenses"
	StockCollection     = "stocks"
	CryptoCollection    = "crypto"
	AlertCollection     = "alerts"
	BudgetCollection    = "budgets"
	OTPCollection       = "otps"
	PushTokenCollection = "push_tokens"

	// SystemUser owns records that are not tied to a user yet (OTP codes).
	SystemUser = "_system"

	DefaultLimit    = 100
	StatisticsLimit = 1000
)

// Document is a single record. Every document carries its id under "id".
type Document map[string]any

func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Query narrows a Find call. Filter is an equality match on top-level fields.
// Results are sorted descending on SortBy when it is set.
type Query struct {
	Filter map[string]any
	SortBy string
	Limit  int
}

// Backend is a document collection store namespaced by user id.
type Backend interface {
	Name() string
	Insert(ctx context.Context, userID, collection string, doc Document) error
	Find(ctx context.Context, userID, collection string, q Query) ([]Document, error)
	// Get returns nil, nil when the document does not exist.
	Get(ctx context.Context, userID, collection, id string) (Document, error)
	Update(ctx context.Context, userID, collection, id string, fields Document) (bool, error)
	Upsert(ctx context.Context, userID, collection, id string, doc Document) error
	Delete(ctx context.Context, userID, collection, id string) (bool, error)
	// Users lists the user ids holding at least one document in collection.
	Users(ctx context.Context, collection string) ([]string, error)
	Close(ctx context.Context) error
}

func toDocument(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error encoding document: %w", err)
	}
	return doc, nil
}

// FromDocument decodes a document into a typed record.
func FromDocument(doc Document, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error decoding document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error decoding document: %w", err)
	}
	return nil
}

// Matches reports whether doc satisfies an equality filter.
func Matches(doc Document, filter map[string]any) bool {
	for k, want := range filter {
		if doc[k] != want {
			return false
		}
	}
	return true
}
