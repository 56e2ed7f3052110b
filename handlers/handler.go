package handlers

import (
	"context"
	"errors"
	"net/http"

	"finzora/api/advisor"
	"finzora/api/auth"
	"finzora/api/categorizer"
	"finzora/api/logger"
	"finzora/api/receipt"
	"finzora/api/sse"
	"finzora/api/store"
	"finzora/api/validation"
	"finzora/api/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StockPrices is the equity quote chain.
type StockPrices interface {
	GetLivePrice(ctx context.Context, symbol string) (float64, error)
	GetBatchPrices(ctx context.Context, symbols []string) map[string]float64
}

// CryptoPrices resolves and prices coins.
type CryptoPrices interface {
	Resolve(ctx context.Context, symbol string) (coinID string, price float64, err error)
	GetPrices(ctx context.Context, coinIDs []string) (map[string]float64, error)
}

// Handler carries every collaborator the routes need. Optional ones
// (Scanner, Hub, Pool) may be nil.
type Handler struct {
	Store       *store.Store
	Categorizer *categorizer.Categorizer
	Stocks      StockPrices
	Crypto      CryptoPrices
	Advisor     *advisor.Advisor
	Scanner     *receipt.Scanner
	Auth        *auth.Service
	Hub         *sse.Hub
	Pool        *worker.WorkerPool
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondFailure maps validation errors to 400 and everything else to 500.
func respondFailure(c *gin.Context, op string, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		respondError(c, http.StatusBadRequest, verr.Message)
		return
	}
	logger.Get().Error(op+" failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	respondError(c, http.StatusInternalServerError, "Internal server error")
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Get().Debug("invalid request body", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
