package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"finzora/api/crypto"
	"finzora/api/logger"
	"finzora/api/middleware"
	"finzora/api/models"
	"finzora/api/portfolio"
	"finzora/api/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) HandleAddCrypto(c *gin.Context) {
	var req holdingRequest
	if !bindJSON(c, &req) {
		return
	}
	holding, err := validation.Crypto(req.Symbol, req.Quantity, req.BuyPrice)
	if err != nil {
		respondFailure(c, "add crypto", err)
		return
	}
	if err := validation.Date(req.Date); err != nil {
		respondFailure(c, "add crypto", err)
		return
	}

	ctx := c.Request.Context()
	lookup := holding.Symbol
	if name := strings.TrimSpace(req.Name); name != "" && crypto.CoinID(lookup) == lookup {
		lookup = strings.ToLower(name)
	}
	coinID, price, err := h.Crypto.Resolve(ctx, lookup)
	if err != nil {
		logger.Get().Warn("no price for coin", zap.String("symbol", holding.Symbol), zap.Error(err))
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Could not fetch price for %s. Try using the full name (e.g., 'bitcoin').", holding.Symbol))
		return
	}

	name := validation.Sanitize(req.Name)
	if name == "" {
		name = coinID
	}
	coin := &models.Crypto{
		Symbol:       strings.ToUpper(holding.Symbol),
		CoinID:       coinID,
		Name:         name,
		Quantity:     holding.Quantity,
		BuyPrice:     holding.BuyPrice,
		CurrentPrice: price,
		Date:         req.Date,
	}
	id, err := h.Store.AddCrypto(ctx, middleware.UserID(c), coin)
	if err != nil {
		respondFailure(c, "add crypto", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "Crypto added successfully",
		"id":            id,
		"coin_id":       coinID,
		"current_price": price,
		"profit_loss":   coin.ProfitLoss,
	})
}

func (h *Handler) HandleListCrypto(c *gin.Context) {
	coins, err := h.Store.ListCrypto(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondFailure(c, "list crypto", err)
		return
	}
	totals := portfolio.CryptoTotals(coins)
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"data":              emptyIfNil(coins),
		"total_profit_loss": totals.ProfitLoss,
		"net_worth":         totals.NetWorth,
	})
}

func (h *Handler) HandleDeleteCrypto(c *gin.Context) {
	h.deleteRecord(c, "Crypto", h.Store.DeleteCrypto)
}

// HandleUpdateCryptoPrices reprices every coin in one market-data call.
// Coins without a price keep their previous value.
func (h *Handler) HandleUpdateCryptoPrices(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	coins, err := h.Store.ListCrypto(ctx, userID)
	if err != nil {
		respondFailure(c, "update crypto prices", err)
		return
	}
	if len(coins) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": 0})
		return
	}

	ids := make([]string, 0, len(coins))
	for _, coin := range coins {
		ids = append(ids, coinIDOf(coin))
	}
	prices, err := h.Crypto.GetPrices(ctx, ids)
	if err != nil {
		logger.Get().Warn("crypto price refresh failed, keeping previous prices", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"updated": 0,
			"warning": "Could not fetch live crypto prices; previous prices kept",
		})
		return
	}

	updated := 0
	for _, coin := range coins {
		price, ok := prices[coinIDOf(coin)]
		if !ok {
			continue
		}
		saved, err := h.Store.UpdateCryptoPrice(ctx, userID, coin.ID, price)
		if err != nil {
			respondFailure(c, "update crypto prices", err)
			return
		}
		if saved != nil {
			updated++
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

func coinIDOf(coin models.Crypto) string {
	if coin.CoinID != "" {
		return coin.CoinID
	}
	return crypto.CoinID(coin.Symbol)
}
