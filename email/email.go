// Package email delivers one-time login codes.
package email

import (
	"context"
	"fmt"

	"finzora/api/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const otpSubject = "Your FinZora login code"

type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// SMTPSender sends mail through an authenticated SMTP relay.
type SMTPSender struct {
	From   string
	dialer *gomail.Dialer
}

func NewSMTPSender(host string, port int, from, password string) *SMTPSender {
	return &SMTPSender{
		From:   from,
		dialer: gomail.NewDialer(host, port, from, password),
	}
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", otpSubject)
	m.SetBody("text/plain", OTPBody(code))
	m.AddAlternative("text/html", OTPHTML(code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending otp email: %w", err)
	}
	return nil
}

// LogSender is used when SMTP is not configured. The code ends up in the
// server log so local logins still work.
type LogSender struct{}

func (LogSender) SendOTP(_ context.Context, to, code string) error {
	logger.Get().Warn("SMTP not configured, logging OTP instead of sending it",
		zap.String("email", to),
		zap.String("otp", code))
	return nil
}

func OTPBody(code string) string {
	return fmt.Sprintf("Your FinZora verification code is %s.\n\nIt expires in 10 minutes. If you did not request it, ignore this email.\n", code)
}

func OTPHTML(code string) string {
	return fmt.Sprintf(`<div style="font-family:sans-serif">
<h2>FinZora</h2>
<p>Your verification code is</p>
<p style="font-size:28px;letter-spacing:6px"><b>%s</b></p>
<p>It expires in 10 minutes.</p>
</div>`, code)
}
