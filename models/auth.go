package models

import "github.com/golang-jwt/jwt/v5"

type OTPRecord struct {
	Email    string `json:"email"`
	CodeHash string `json:"code_hash"`
	Expiry   int64  `json:"expiry"`
}

// SessionClaims are the claims carried by tokens issued after OTP login.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}
