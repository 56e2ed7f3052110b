package handlers

import (
	"net/http"
	"strings"

	"finzora/api/middleware"
	"finzora/api/models"
	"finzora/api/validation"

	"github.com/gin-gonic/gin"
)

type alertRequest struct {
	InvestmentID string `json:"investmentId"`
	Symbol       string `json:"symbol"`
	Type         string `json:"type"`
	Value        any    `json:"value"`
}

func (h *Handler) HandleAddAlert(c *gin.Context) {
	var req alertRequest
	if !bindJSON(c, &req) {
		return
	}
	alertType := strings.ToLower(strings.TrimSpace(req.Type))
	value, err := validation.Alert(req.Symbol, alertType, req.Value)
	if err != nil {
		respondFailure(c, "add alert", err)
		return
	}
	alert := &models.Alert{
		InvestmentID: validation.Sanitize(req.InvestmentID),
		Symbol:       strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Type:         alertType,
		Value:        value,
	}
	id, err := h.Store.AddAlert(c.Request.Context(), middleware.UserID(c), alert)
	if err != nil {
		respondFailure(c, "add alert", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Alert created successfully",
		"alert_id": id,
	})
}

func (h *Handler) HandleListAlerts(c *gin.Context) {
	alerts, err := h.Store.ListAlerts(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondFailure(c, "list alerts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emptyIfNil(alerts)})
}

func (h *Handler) HandleDeleteAlert(c *gin.Context) {
	h.deleteRecord(c, "Alert", h.Store.DeleteAlert)
}

type saveTokenRequest struct {
	Token string `json:"token"`
}

func (h *Handler) HandleSaveToken(c *gin.Context) {
	var req saveTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		respondError(c, http.StatusBadRequest, "Token is required")
		return
	}
	if err := h.Store.SavePushToken(c.Request.Context(), middleware.UserID(c), token); err != nil {
		respondFailure(c, "save push token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Token saved"})
}
