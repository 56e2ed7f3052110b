package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finzora/api/logger"
	"finzora/api/middleware"
	"finzora/api/models"
	"finzora/api/reports"
	"finzora/api/subscriptions"
	"finzora/api/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type transactionRequest struct {
	Amount      any    `json:"amount"`
	Source      string `json:"source"`
	Merchant    string `json:"merchant"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func (h *Handler) HandleAddIncome(c *gin.Context) {
	var req transactionRequest
	if !bindJSON(c, &req) {
		return
	}
	source := validation.Sanitize(req.Source)
	amount, err := validation.Transaction(models.TypeIncome, req.Amount, source)
	if err != nil {
		respondFailure(c, "add income", err)
		return
	}
	if err := validation.Date(req.Date); err != nil {
		respondFailure(c, "add income", err)
		return
	}

	income := &models.Income{
		Amount:      amount,
		Source:      source,
		Description: validation.Sanitize(req.Description),
		Date:        req.Date,
	}
	id, err := h.Store.AddIncome(c.Request.Context(), middleware.UserID(c), income)
	if err != nil {
		respondFailure(c, "add income", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Income added successfully",
		"income_id": id,
	})
}

func (h *Handler) HandleListIncome(c *gin.Context) {
	income, err := h.Store.ListIncome(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondFailure(c, "list income", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emptyIfNil(income)})
}

func (h *Handler) HandleDeleteIncome(c *gin.Context) {
	h.deleteRecord(c, "Income", h.Store.DeleteIncome)
}

func (h *Handler) HandleAddExpense(c *gin.Context) {
	var req transactionRequest
	if !bindJSON(c, &req) {
		return
	}
	merchant := validation.Sanitize(req.Merchant)
	amount, err := validation.Transaction(models.TypeExpense, req.Amount, merchant)
	if err != nil {
		respondFailure(c, "add expense", err)
		return
	}
	if err := validation.Date(req.Date); err != nil {
		respondFailure(c, "add expense", err)
		return
	}

	var category string
	if requested := validation.Sanitize(req.Category); requested != "" {
		known, ok := h.Categorizer.Canonical(requested)
		if !ok {
			respondError(c, http.StatusBadRequest, "Unknown category: "+requested)
			return
		}
		category = known
	} else {
		category = h.Categorizer.Categorize(c.Request.Context(), merchant)
	}

	expense := &models.Expense{
		Amount:      amount,
		Merchant:    merchant,
		Description: validation.Sanitize(req.Description),
		Category:    category,
		Date:        req.Date,
	}
	id, err := h.Store.AddExpense(c.Request.Context(), middleware.UserID(c), expense)
	if err != nil {
		respondFailure(c, "add expense", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Expense added successfully",
		"expense_id": id,
		"category":   category,
	})
}

func (h *Handler) HandleListExpenses(c *gin.Context) {
	expenses, err := h.Store.ListExpenses(c.Request.Context(), middleware.UserID(c), c.Query("category"))
	if err != nil {
		respondFailure(c, "list expenses", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emptyIfNil(expenses)})
}

func (h *Handler) HandleDeleteExpense(c *gin.Context) {
	h.deleteRecord(c, "Expense", h.Store.DeleteExpense)
}

func (h *Handler) HandleExpenseStatistics(c *gin.Context) {
	stats, err := h.Store.ExpenseStatistics(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondFailure(c, "expense statistics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (h *Handler) HandleSubscriptions(c *gin.Context) {
	opts := subscriptions.DefaultOptions()
	if raw := c.Query("min_occurrences"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 {
			respondError(c, http.StatusBadRequest, "min_occurrences must be an integer of at least 2")
			return
		}
		opts.MinOccurrences = n
	}

	expenses, err := h.Store.AllExpenses(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondFailure(c, "detect subscriptions", err)
		return
	}
	candidates := subscriptions.Detect(expenses, opts)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    emptyIfNil(candidates),
		"count":   len(candidates),
	})
}

// HandleExpenseReport renders ?month=YYYY-MM (default: current month) as a PDF.
func (h *Handler) HandleExpenseReport(c *gin.Context) {
	month := c.DefaultQuery("month", currentMonth())
	if _, err := time.Parse("2006-01", month); err != nil {
		respondError(c, http.StatusBadRequest, "month must be in YYYY-MM format")
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	expenses, err := h.Store.AllExpenses(ctx, userID)
	if err != nil {
		respondFailure(c, "expense report", err)
		return
	}
	income, err := h.Store.ListIncome(ctx, userID)
	if err != nil {
		respondFailure(c, "expense report", err)
		return
	}

	sum := reports.Summarize(month, expenses, income)
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": sum})
		return
	}
	pdfBytes, err := reports.BuildMonthlyPDF(sum)
	if err != nil {
		respondFailure(c, "render report", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=finzora-report-"+month+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

type receiptRequest struct {
	Image string `json:"image"`
}

func (h *Handler) HandleScanReceipt(c *gin.Context) {
	var req receiptRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Image == "" {
		respondError(c, http.StatusBadRequest, "No image provided")
		return
	}
	if !h.Scanner.Enabled() {
		respondError(c, http.StatusServiceUnavailable, "Receipt scanning requires GOOGLE_GEMINI_API_KEY")
		return
	}
	data, err := h.Scanner.Scan(c.Request.Context(), req.Image)
	if err != nil {
		logger.Get().Warn("receipt scan failed", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Failed to scan receipt: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

// deleteRecord answers 200 on success and 400 with success:false when the
// record does not exist.
func (h *Handler) deleteRecord(c *gin.Context, label string, del func(ctx context.Context, userID, id string) (bool, error)) {
	ok, err := del(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondFailure(c, "delete "+label, err)
		return
	}
	if !ok {
		respondError(c, http.StatusBadRequest, "Failed to delete "+strings.ToLower(label))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": label + " deleted successfully"})
}
