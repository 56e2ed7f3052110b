package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"finzora/api/email"
	"finzora/api/logger"
	"finzora/api/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	OTPLength = 6
	OTPTTL    = 10 * time.Minute
)

var (
	ErrOTPNotFound = errors.New("auth: no otp found for email")
	ErrOTPExpired  = errors.New("auth: otp expired")
	ErrOTPInvalid  = errors.New("auth: otp mismatch")
)

// OTPStore persists at most one pending code per e-mail.
type OTPStore interface {
	SaveOTP(ctx context.Context, rec *models.OTPRecord) error
	GetOTP(ctx context.Context, email string) (*models.OTPRecord, error)
	DeleteOTP(ctx context.Context, email string) error
}

type Service struct {
	store  OTPStore
	sender email.Sender
	tokens *Tokens
	now    func() time.Time
}

func NewService(store OTPStore, sender email.Sender, tokens *Tokens) *Service {
	return &Service{store: store, sender: sender, tokens: tokens, now: time.Now}
}

// SendOTP replaces any pending code for addr and delivers a fresh one.
func (s *Service) SendOTP(ctx context.Context, addr string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing otp: %w", err)
	}

	rec := &models.OTPRecord{
		Email:    addr,
		CodeHash: string(hash),
		Expiry:   s.now().Add(OTPTTL).Unix(),
	}
	if err := s.store.SaveOTP(ctx, rec); err != nil {
		return err
	}
	if err := s.sender.SendOTP(ctx, addr, code); err != nil {
		logger.Get().Error("Failed to deliver OTP", zap.String("email", addr), zap.Error(err))
		return err
	}
	return nil
}

// VerifyOTP checks a code and returns a session token. Any attempt, right or
// wrong, consumes the pending code.
func (s *Service) VerifyOTP(ctx context.Context, addr, code string) (string, error) {
	rec, err := s.store.GetOTP(ctx, addr)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrOTPNotFound
	}
	if err := s.store.DeleteOTP(ctx, addr); err != nil {
		return "", err
	}

	if s.now().Unix() > rec.Expiry {
		return "", ErrOTPExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)); err != nil {
		return "", ErrOTPInvalid
	}
	return s.tokens.Issue(addr)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("error generating otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}
