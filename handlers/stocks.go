package handlers

import (
	"fmt"
	"net/http"

	"finzora/api/logger"
	"finzora/api/middleware"
	"finzora/api/models"
	"finzora/api/portfolio"
	"finzora/api/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type holdingRequest struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Quantity any    `json:"quantity"`
	BuyPrice any    `json:"buy_price"`
	Date     string `json:"date"`
}

// HandleAddStock rejects the holding when no live price can be found.
func (h *Handler) HandleAddStock(c *gin.Context) {
	var req holdingRequest
	if !bindJSON(c, &req) {
		return
	}
	holding, err := validation.Stock(req.Symbol, req.Quantity, req.BuyPrice)
	if err != nil {
		respondFailure(c, "add stock", err)
		return
	}
	if err := validation.Date(req.Date); err != nil {
		respondFailure(c, "add stock", err)
		return
	}

	ctx := c.Request.Context()
	price, err := h.Stocks.GetLivePrice(ctx, holding.Symbol)
	if err != nil || price <= 0 {
		logger.Get().Warn("no live price for new stock",
			zap.String("symbol", holding.Symbol),
			zap.Error(err))
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Could not fetch real price for %s. Check the symbol or your API key.", holding.Symbol))
		return
	}

	stock := &models.Stock{
		Symbol:       holding.Symbol,
		Quantity:     holding.Quantity,
		BuyPrice:     holding.BuyPrice,
		CurrentPrice: price,
		Date:         req.Date,
	}
	id, err := h.Store.AddStock(ctx, middleware.UserID(c), stock)
	if err != nil {
		respondFailure(c, "add stock", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "Stock added successfully with live price",
		"stock_id":      id,
		"current_price": stock.CurrentPrice,
		"profit_loss":   stock.ProfitLoss,
	})
}

func (h *Handler) HandleListStocks(c *gin.Context) {
	stocks, err := h.Store.ListStocks(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondFailure(c, "list stocks", err)
		return
	}
	totals := portfolio.StockTotals(stocks)
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"data":              emptyIfNil(stocks),
		"total_profit_loss": totals.ProfitLoss,
		"net_worth":         totals.NetWorth,
		"total_invested":    totals.Invested,
	})
}

func (h *Handler) HandleDeleteStock(c *gin.Context) {
	h.deleteRecord(c, "Stock", h.Store.DeleteStock)
}

type updatedHolding struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	ProfitLoss   float64 `json:"profit_loss"`
}

type priceWarning struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// HandleUpdateStockPrices refreshes every holding. A symbol with no live
// price is valued at its buy price and reported in warnings.
func (h *Handler) HandleUpdateStockPrices(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	stocks, err := h.Store.ListStocks(ctx, userID)
	if err != nil {
		respondFailure(c, "update stock prices", err)
		return
	}

	seen := map[string]bool{}
	var symbols []string
	for _, s := range stocks {
		if !seen[s.Symbol] {
			seen[s.Symbol] = true
			symbols = append(symbols, s.Symbol)
		}
	}
	prices := h.Stocks.GetBatchPrices(ctx, symbols)

	updated := []updatedHolding{}
	var warnings []priceWarning
	live := 0
	for _, s := range stocks {
		price, ok := prices[s.Symbol]
		if ok {
			live++
		} else {
			price = s.BuyPrice
			warnings = append(warnings, priceWarning{Symbol: s.Symbol, Reason: "Live price unavailable, using buy price"})
			logger.Get().Warn("live price unavailable, using buy price",
				zap.String("symbol", s.Symbol),
				zap.String("stock_id", s.ID))
		}
		st, err := h.Store.UpdateStockPrice(ctx, userID, s.ID, price)
		if err != nil {
			respondFailure(c, "update stock prices", err)
			return
		}
		if st == nil {
			continue
		}
		updated = append(updated, updatedHolding{Symbol: st.Symbol, CurrentPrice: st.CurrentPrice, ProfitLoss: st.ProfitLoss})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        fmt.Sprintf("Updated %d stocks with live prices", live),
		"updated_stocks": updated,
		"failed_stocks":  warnings,
	})
}
