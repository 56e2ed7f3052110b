package handlers

import (
	"errors"
	"net/http"

	"finzora/api/auth"
	"finzora/api/validation"

	"github.com/gin-gonic/gin"
)

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) HandleSendOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	addr, err := validation.Email(req.Email)
	if err != nil {
		respondFailure(c, "send otp", err)
		return
	}
	if err := h.Auth.SendOTP(c.Request.Context(), addr); err != nil {
		respondFailure(c, "send otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent to " + addr})
}

func (h *Handler) HandleVerifyOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	addr, err := validation.Email(req.Email)
	if err != nil {
		respondFailure(c, "verify otp", err)
		return
	}
	if req.OTP == "" {
		respondError(c, http.StatusBadRequest, "OTP is required")
		return
	}

	token, err := h.Auth.VerifyOTP(c.Request.Context(), addr, req.OTP)
	if err != nil {
		if msg, ok := otpMessage(err); ok {
			respondError(c, http.StatusBadRequest, msg)
			return
		}
		respondFailure(c, "verify otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "OTP verified",
		"token":   token,
		"email":   addr,
	})
}

// otpMessage is the client-facing text for a rejected code.
func otpMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, auth.ErrOTPNotFound):
		return "No OTP found for this email", true
	case errors.Is(err, auth.ErrOTPExpired):
		return "OTP has expired", true
	case errors.Is(err, auth.ErrOTPInvalid):
		return "Invalid OTP", true
	}
	return "", false
}
