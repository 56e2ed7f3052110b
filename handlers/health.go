package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Backend is running",
		"api_key_configured": h.Advisor.Enabled(),
		"ai_provider":        h.Advisor.ProviderName(),
		"storage":            h.Store.Backend().Name(),
	})
}

func HandleNotFound(c *gin.Context) {
	respondError(c, http.StatusNotFound, "Endpoint not found")
}
