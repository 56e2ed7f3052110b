package models

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
	TypeCrypto  = "crypto"
)

type Income struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Source      string  `json:"source"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Timestamp   string  `json:"timestamp"`
	Type        string  `json:"type"`
}

type Expense struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Merchant    string  `json:"merchant"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Timestamp   string  `json:"timestamp"`
	Type        string  `json:"type"`
}

type Stock struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price"`
	ProfitLoss   float64 `json:"profit_loss"`
	Date         string  `json:"date"`
	Timestamp    string  `json:"timestamp"`
	LastUpdated  string  `json:"last_updated,omitempty"`
}

type Crypto struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	CoinID       string  `json:"coin_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price"`
	ProfitLoss   float64 `json:"profit_loss"`
	Date         string  `json:"date"`
	Timestamp    string  `json:"timestamp"`
	Type         string  `json:"type"`
	LastUpdated  string  `json:"last_updated,omitempty"`
}

type Budget struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
}

// BudgetStatus is a budget measured against the current month's spend.
type BudgetStatus struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
	Spent    float64 `json:"spent"`
	Percent  float64 `json:"percent"`
	State    string  `json:"state"`
}

type ExpenseStatistics struct {
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	ByCategory map[string]float64 `json:"by_category"`
}
