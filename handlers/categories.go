package handlers

import (
	"net/http"
	"strings"

	"finzora/api/middleware"
	"finzora/api/reports"
	"finzora/api/validation"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HandleListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       h.Categorizer.Categories(),
		"ai_enabled": h.Categorizer.AIEnabled(),
	})
}

type customRuleRequest struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}

func (h *Handler) HandleAddCategoryRule(c *gin.Context) {
	var req customRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	category := validation.Sanitize(req.Category)
	if category == "" || len(req.Keywords) == 0 {
		respondError(c, http.StatusBadRequest, "Missing category or keywords")
		return
	}
	h.Categorizer.AddCustomRule(category, req.Keywords)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rule added"})
}

type bulkCategorizeRequest struct {
	Merchants []string `json:"merchants"`
}

func (h *Handler) HandleBulkCategorize(c *gin.Context) {
	var req bulkCategorizeRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Merchants) == 0 {
		respondError(c, http.StatusBadRequest, "No merchants provided")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.Categorizer.BulkCategorize(c.Request.Context(), req.Merchants),
	})
}

type budgetRequest struct {
	Category string `json:"category"`
	Limit    any    `json:"limit"`
}

func (h *Handler) HandleSetBudget(c *gin.Context) {
	var req budgetRequest
	if !bindJSON(c, &req) {
		return
	}
	category := strings.TrimSpace(validation.Sanitize(req.Category))
	limit, err := validation.Budget(category, req.Limit)
	if err != nil {
		respondFailure(c, "set budget", err)
		return
	}
	budget, err := h.Store.SetBudget(c.Request.Context(), middleware.UserID(c), category, limit)
	if err != nil {
		respondFailure(c, "set budget", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Budget updated", "data": budget})
}

func (h *Handler) HandleListBudgets(c *gin.Context) {
	budgets, err := h.Store.ListBudgets(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondFailure(c, "list budgets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emptyIfNil(budgets)})
}

// HandleBudgetStatus compares every budget with spend in ?month=YYYY-MM
// (default: current month).
func (h *Handler) HandleBudgetStatus(c *gin.Context) {
	month := c.DefaultQuery("month", currentMonth())
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	budgets, err := h.Store.ListBudgets(ctx, userID)
	if err != nil {
		respondFailure(c, "budget status", err)
		return
	}
	expenses, err := h.Store.AllExpenses(ctx, userID)
	if err != nil {
		respondFailure(c, "budget status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"month":   month,
		"data":    reports.BudgetStatus(month, budgets, expenses),
	})
}
