package handlers

import (
	"net/http"
	"strings"

	"finzora/api/advisor"
	"finzora/api/logger"
	"finzora/api/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type chatRequest struct {
	Message        string `json:"message"`
	IncludeContext *bool  `json:"include_context"`
}

// HandleChat always answers 200 once the message is present; advisor
// failures come back as success:false with fallback:true.
func (h *Handler) HandleChat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(c, http.StatusBadRequest, "Message is required")
		return
	}

	var data *advisor.UserData
	if req.IncludeContext == nil || *req.IncludeContext {
		data = h.userData(c)
	}

	result := h.Advisor.GenerateResponse(c.Request.Context(), message, data)
	if result.Error != "" {
		c.JSON(http.StatusOK, gin.H{
			"success":  false,
			"message":  result.Error,
			"fallback": true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"response":  result.Response,
		"data_used": data != nil,
	})
}

// userData gathers the context snapshot. A read failure only drops the
// context; the question is still answered.
func (h *Handler) userData(c *gin.Context) *advisor.UserData {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	expenses, err := h.Store.AllExpenses(ctx, userID)
	if err != nil {
		logger.Get().Warn("chat context: expenses unavailable", zap.Error(err))
		return nil
	}
	income, err := h.Store.ListIncome(ctx, userID)
	if err != nil {
		logger.Get().Warn("chat context: income unavailable", zap.Error(err))
		return nil
	}
	stocks, err := h.Store.ListStocks(ctx, userID)
	if err != nil {
		logger.Get().Warn("chat context: stocks unavailable", zap.Error(err))
		return nil
	}
	return &advisor.UserData{Expenses: expenses, Income: income, Stocks: stocks}
}

func (h *Handler) HandleChatPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "prompts": advisor.QuickPrompts()})
}
