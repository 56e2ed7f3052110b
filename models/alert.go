package models

const (
	AlertTarget = "target"
	AlertProfit = "profit"
	AlertLoss   = "loss"
)

type Alert struct {
	ID           string  `json:"id"`
	InvestmentID string  `json:"investmentId"`
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"`
	Value        float64 `json:"value"`
	Triggered    bool    `json:"triggered"`
	CreatedAt    string  `json:"created_at"`
	TriggeredAt  string  `json:"triggered_at,omitempty"`
}

type PushToken struct {
	Token     string `json:"token"`
	UpdatedAt string `json:"updated_at"`
}

// AlertNotification is what the alert monitor publishes when an alert fires.
type AlertNotification struct {
	UserID    string  `json:"user_id"`
	AlertID   string  `json:"alert_id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Target    float64 `json:"target"`
	Token     string  `json:"token"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Timestamp int64   `json:"timestamp"`
}
