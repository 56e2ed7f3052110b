package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finzora/api/models"
	"finzora/api/portfolio"

	"github.com/google/uuid"
)

// Store is the typed record layer every handler and the alert monitor use.
// It is stateless apart from the backend and a clock.
type Store struct {
	backend Backend
	now     func() time.Time
}

func New(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// WithClock replaces the clock used for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Backend() Backend { return s.backend }

func (s *Store) timestamp() string {
	return s.now().Format("2006-01-02T15:04:05.000000")
}

func (s *Store) insert(ctx context.Context, userID, collection string, record any) error {
	doc, err := toDocument(record)
	if err != nil {
		return err
	}
	if err := s.backend.Insert(ctx, userID, collection, doc); err != nil {
		return fmt.Errorf("error inserting into %s: %w", collection, err)
	}
	return nil
}

func list[T any](ctx context.Context, b Backend, userID, collection string, q Query) ([]T, error) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	docs, err := b.Find(ctx, userID, collection, q)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", collection, err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := FromDocument(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func get[T any](ctx context.Context, b Backend, userID, collection, id string) (*T, error) {
	doc, err := b.Get(ctx, userID, collection, id)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s/%s: %w", collection, id, err)
	}
	if doc == nil {
		return nil, nil
	}
	var v T
	if err := FromDocument(doc, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) remove(ctx context.Context, userID, collection, id string) (bool, error) {
	ok, err := s.backend.Delete(ctx, userID, collection, id)
	if err != nil {
		return false, fmt.Errorf("error deleting %s/%s: %w", collection, id, err)
	}
	return ok, nil
}

// recordDate stores client dates in ISO form; an empty date falls back to
// the insertion timestamp.
func recordDate(date, timestamp string) string {
	if strings.TrimSpace(date) == "" {
		return timestamp
	}
	return models.NormalizeDate(date)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Income

func (s *Store) AddIncome(ctx context.Context, userID string, in *models.Income) (string, error) {
	in.ID = newID()
	in.Type = models.TypeIncome
	in.Timestamp = s.timestamp()
	in.Date = recordDate(in.Date, in.Timestamp)
	return in.ID, s.insert(ctx, userID, IncomeCollection, in)
}

func (s *Store) ListIncome(ctx context.Context, userID string) ([]models.Income, error) {
	return list[models.Income](ctx, s.backend, userID, IncomeCollection, Query{SortBy: "date"})
}

func (s *Store) DeleteIncome(ctx context.Context, userID, id string) (bool, error) {
	return s.remove(ctx, userID, IncomeCollection, id)
}

// Expenses

func (s *Store) AddExpense(ctx context.Context, userID string, e *models.Expense) (string, error) {
	e.ID = newID()
	e.Type = models.TypeExpense
	e.Timestamp = s.timestamp()
	e.Date = recordDate(e.Date, e.Timestamp)
	return e.ID, s.insert(ctx, userID, ExpenseCollection, e)
}

// ListExpenses returns the newest expenses, optionally narrowed to one category.
func (s *Store) ListExpenses(ctx context.Context, userID, category string) ([]models.Expense, error) {
	q := Query{SortBy: "date"}
	if category != "" {
		q.Filter = map[string]any{"category": category}
	}
	return list[models.Expense](ctx, s.backend, userID, ExpenseCollection, q)
}

// AllExpenses is ListExpenses with the statistics limit, for aggregate views.
func (s *Store) AllExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	return list[models.Expense](ctx, s.backend, userID, ExpenseCollection,
		Query{SortBy: "date", Limit: StatisticsLimit})
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) (bool, error) {
	return s.remove(ctx, userID, ExpenseCollection, id)
}

func (s *Store) ExpenseStatistics(ctx context.Context, userID string) (*models.ExpenseStatistics, error) {
	expenses, err := s.AllExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	byCategory := map[string][]float64{}
	amounts := make([]float64, 0, len(expenses))
	for _, e := range expenses {
		category := e.Category
		if category == "" {
			category = "Uncategorized"
		}
		byCategory[category] = append(byCategory[category], e.Amount)
		amounts = append(amounts, e.Amount)
	}
	stats := &models.ExpenseStatistics{
		Total:      portfolio.Sum(amounts...),
		Count:      len(expenses),
		ByCategory: make(map[string]float64, len(byCategory)),
	}
	for category, values := range byCategory {
		stats.ByCategory[category] = portfolio.Sum(values...)
	}
	return stats, nil
}

// Stocks

func (s *Store) AddStock(ctx context.Context, userID string, st *models.Stock) (string, error) {
	st.ID = newID()
	st.Timestamp = s.timestamp()
	st.LastUpdated = st.Timestamp
	st.Date = recordDate(st.Date, st.Timestamp)
	st.ProfitLoss = portfolio.ProfitLoss(st.CurrentPrice, st.BuyPrice, st.Quantity)
	return st.ID, s.insert(ctx, userID, StockCollection, st)
}

func (s *Store) ListStocks(ctx context.Context, userID string) ([]models.Stock, error) {
	return list[models.Stock](ctx, s.backend, userID, StockCollection, Query{SortBy: "timestamp"})
}

// UpdateStockPrice stores a new price and recomputes profit/loss from the
// stored buy price and quantity. It returns nil when the stock is gone.
func (s *Store) UpdateStockPrice(ctx context.Context, userID, id string, price float64) (*models.Stock, error) {
	st, err := get[models.Stock](ctx, s.backend, userID, StockCollection, id)
	if err != nil || st == nil {
		return nil, err
	}
	st.CurrentPrice = price
	st.ProfitLoss = portfolio.ProfitLoss(price, st.BuyPrice, st.Quantity)
	st.LastUpdated = s.timestamp()
	ok, err := s.backend.Update(ctx, userID, StockCollection, id, Document{
		"current_price": st.CurrentPrice,
		"profit_loss":   st.ProfitLoss,
		"last_updated":  st.LastUpdated,
	})
	if err != nil {
		return nil, fmt.Errorf("error updating stock %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return st, nil
}

func (s *Store) DeleteStock(ctx context.Context, userID, id string) (bool, error) {
	return s.remove(ctx, userID, StockCollection, id)
}

// Crypto

func (s *Store) AddCrypto(ctx context.Context, userID string, c *models.Crypto) (string, error) {
	c.ID = newID()
	c.Type = models.TypeCrypto
	c.Timestamp = s.timestamp()
	c.LastUpdated = c.Timestamp
	c.Date = recordDate(c.Date, c.Timestamp)
	c.ProfitLoss = portfolio.ProfitLoss(c.CurrentPrice, c.BuyPrice, c.Quantity)
	return c.ID, s.insert(ctx, userID, CryptoCollection, c)
}

func (s *Store) ListCrypto(ctx context.Context, userID string) ([]models.Crypto, error) {
	return list[models.Crypto](ctx, s.backend, userID, CryptoCollection, Query{SortBy: "timestamp"})
}

func (s *Store) UpdateCryptoPrice(ctx context.Context, userID, id string, price float64) (*models.Crypto, error) {
	c, err := get[models.Crypto](ctx, s.backend, userID, CryptoCollection, id)
	if err != nil || c == nil {
		return nil, err
	}
	c.CurrentPrice = price
	c.ProfitLoss = portfolio.ProfitLoss(price, c.BuyPrice, c.Quantity)
	c.LastUpdated = s.timestamp()
	ok, err := s.backend.Update(ctx, userID, CryptoCollection, id, Document{
		"current_price": c.CurrentPrice,
		"profit_loss":   c.ProfitLoss,
		"last_updated":  c.LastUpdated,
	})
	if err != nil {
		return nil, fmt.Errorf("error updating crypto %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (s *Store) DeleteCrypto(ctx context.Context, userID, id string) (bool, error) {
	return s.remove(ctx, userID, CryptoCollection, id)
}

// Alerts

func (s *Store) AddAlert(ctx context.Context, userID string, a *models.Alert) (string, error) {
	a.ID = newID()
	a.Triggered = false
	a.TriggeredAt = ""
	a.CreatedAt = s.timestamp()
	return a.ID, s.insert(ctx, userID, AlertCollection, a)
}

func (s *Store) ListAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return list[models.Alert](ctx, s.backend, userID, AlertCollection, Query{SortBy: "created_at"})
}

func (s *Store) PendingAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return list[models.Alert](ctx, s.backend, userID, AlertCollection, Query{
		Filter: map[string]any{"triggered": false},
		SortBy: "created_at",
		Limit:  StatisticsLimit,
	})
}

func (s *Store) MarkAlertTriggered(ctx context.Context, userID, id string) (bool, error) {
	ok, err := s.backend.Update(ctx, userID, AlertCollection, id, Document{
		"triggered":    true,
		"triggered_at": s.timestamp(),
	})
	if err != nil {
		return false, fmt.Errorf("error marking alert %s: %w", id, err)
	}
	return ok, nil
}

func (s *Store) DeleteAlert(ctx context.Context, userID, id string) (bool, error) {
	return s.remove(ctx, userID, AlertCollection, id)
}

// Budgets

func BudgetID(category string) string {
	return "budget_" + strings.ToLower(strings.TrimSpace(category))
}

// SetBudget replaces any existing budget for the category.
func (s *Store) SetBudget(ctx context.Context, userID, category string, limit float64) (*models.Budget, error) {
	b := &models.Budget{ID: BudgetID(category), Category: strings.TrimSpace(category), Limit: limit}
	doc, err := toDocument(b)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Upsert(ctx, userID, BudgetCollection, b.ID, doc); err != nil {
		return nil, fmt.Errorf("error saving budget: %w", err)
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	return list[models.Budget](ctx, s.backend, userID, BudgetCollection, Query{})
}

// OTP codes are keyed by e-mail under the system namespace.

func otpID(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) SaveOTP(ctx context.Context, rec *models.OTPRecord) error {
	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	if err := s.backend.Upsert(ctx, SystemUser, OTPCollection, otpID(rec.Email), doc); err != nil {
		return fmt.Errorf("error saving otp: %w", err)
	}
	return nil
}

func (s *Store) GetOTP(ctx context.Context, email string) (*models.OTPRecord, error) {
	return get[models.OTPRecord](ctx, s.backend, SystemUser, OTPCollection, otpID(email))
}

func (s *Store) DeleteOTP(ctx context.Context, email string) error {
	_, err := s.remove(ctx, SystemUser, OTPCollection, otpID(email))
	return err
}

// Push tokens: one per user.

const pushTokenID = "fcm_token"

func (s *Store) SavePushToken(ctx context.Context, userID, token string) error {
	doc, err := toDocument(models.PushToken{Token: token, UpdatedAt: s.timestamp()})
	if err != nil {
		return err
	}
	if err := s.backend.Upsert(ctx, userID, PushTokenCollection, pushTokenID, doc); err != nil {
		return fmt.Errorf("error saving push token: %w", err)
	}
	return nil
}

func (s *Store) GetPushToken(ctx context.Context, userID string) (*models.PushToken, error) {
	return get[models.PushToken](ctx, s.backend, userID, PushTokenCollection, pushTokenID)
}

func (s *Store) UsersWithPushTokens(ctx context.Context) ([]string, error) {
	users, err := s.backend.Users(ctx, PushTokenCollection)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}
