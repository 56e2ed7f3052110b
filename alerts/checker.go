// Package alerts evaluates stored price alerts against live quotes and
// notifies the owner once per alert.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"finzora/api/logger"
	"finzora/api/models"

	"go.uber.org/zap"
)

const notificationTitle = "Price Alert"

type Store interface {
	UsersWithPushTokens(ctx context.Context) ([]string, error)
	GetPushToken(ctx context.Context, userID string) (*models.PushToken, error)
	PendingAlerts(ctx context.Context, userID string) ([]models.Alert, error)
	MarkAlertTriggered(ctx context.Context, userID, id string) (bool, error)
}

type PriceSource interface {
	GetLivePrice(ctx context.Context, symbol string) (float64, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *models.AlertNotification) error
}

// LogNotifier only records the notification. Used when no message bus is
// configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n *models.AlertNotification) error {
	logger.Get().Info("price alert triggered",
		zap.String("user_id", n.UserID),
		zap.String("symbol", n.Symbol),
		zap.Float64("price", n.Price),
		zap.Float64("target", n.Target),
		zap.String("body", n.Body))
	return nil
}

// EncodeNotification is the wire form shared by every notifier.
func EncodeNotification(n *models.AlertNotification) ([]byte, error) {
	return json.Marshal(n)
}

type Checker struct {
	store    Store
	prices   PriceSource
	notifier Notifier
	now      func() time.Time
}

func NewChecker(store Store, prices PriceSource, notifier Notifier) *Checker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Checker{store: store, prices: prices, notifier: notifier, now: time.Now}
}

type Summary struct {
	Users     int
	Checked   int
	Triggered int
}

// RunOnce makes a single pass over every user holding a push token.
func (c *Checker) RunOnce(ctx context.Context) (Summary, error) {
	var sum Summary
	users, err := c.store.UsersWithPushTokens(ctx)
	if err != nil {
		return sum, err
	}

	// one quote per symbol per pass
	prices := map[string]float64{}
	for _, userID := range users {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		token, err := c.store.GetPushToken(ctx, userID)
		if err != nil {
			logger.Get().Warn("failed to read push token", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if token == nil || token.Token == "" {
			continue
		}
		sum.Users++

		pending, err := c.store.PendingAlerts(ctx, userID)
		if err != nil {
			logger.Get().Warn("failed to list alerts", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		for i := range pending {
			fired, err := c.check(ctx, userID, token.Token, &pending[i], prices)
			if err != nil {
				logger.Get().Warn("alert check failed",
					zap.String("user_id", userID),
					zap.String("alert_id", pending[i].ID),
					zap.Error(err))
			}
			sum.Checked++
			if fired {
				sum.Triggered++
			}
		}
	}
	return sum, nil
}

func (c *Checker) check(ctx context.Context, userID, token string, a *models.Alert, prices map[string]float64) (bool, error) {
	if a.Triggered || a.Symbol == "" || a.Type != models.AlertTarget {
		return false, nil
	}

	price, ok := prices[a.Symbol]
	if !ok {
		p, err := c.prices.GetLivePrice(ctx, a.Symbol)
		if err != nil {
			return false, fmt.Errorf("no price for %s: %w", a.Symbol, err)
		}
		prices[a.Symbol], price = p, p
	}
	if price < a.Value {
		return false, nil
	}

	n := &models.AlertNotification{
		UserID:    userID,
		AlertID:   a.ID,
		Symbol:    a.Symbol,
		Price:     price,
		Target:    a.Value,
		Token:     token,
		Title:     notificationTitle,
		Body:      fmt.Sprintf("%s hit your target of ₹%.2f!", a.Symbol, a.Value),
		Timestamp: c.now().Unix(),
	}
	if err := c.notifier.Notify(ctx, n); err != nil {
		return false, fmt.Errorf("notify: %w", err)
	}
	if _, err := c.store.MarkAlertTriggered(ctx, userID, a.ID); err != nil {
		return true, fmt.Errorf("mark triggered: %w", err)
	}
	logger.Get().Info("alert triggered",
		zap.String("user_id", userID),
		zap.String("symbol", a.Symbol),
		zap.Float64("price", price))
	return true, nil
}

// Run checks immediately and then on every tick until ctx is cancelled.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	logger.Get().Info("alert monitor started", zap.Duration("interval", interval))
	c.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Get().Info("alert monitor stopped")
			return
		case <-ticker.C:
			c.runLogged(ctx)
		}
	}
}

func (c *Checker) runLogged(ctx context.Context) {
	sum, err := c.RunOnce(ctx)
	if err != nil {
		logger.Get().Warn("alert check failed", zap.Error(err))
		return
	}
	logger.Get().Debug("alert check finished",
		zap.Int("users", sum.Users),
		zap.Int("checked", sum.Checked),
		zap.Int("triggered", sum.Triggered))
}
