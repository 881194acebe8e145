package notification

import (
	"context"
	"log/slog"
)

// Template kinds for outbound verification messages.
const (
	KindAccountVerification = "account_verification"
	KindLoginChallenge      = "login_challenge"
)

// EmailSender delivers a one-time code over email. The returned flag reports
// delivery only; auth flows treat failed dispatch as best-effort and never
// abort on it.
type EmailSender interface {
	SendEmail(ctx context.Context, to, kind, code, displayName string) bool
}

// SMSSender delivers a one-time code over SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, kind, code string) bool
}

// LoggerEmailSender is a stand-in used when no SendGrid key is configured.
// It writes the would-be message to the structured logger.
type LoggerEmailSender struct {
	logger *slog.Logger
}

// NewLoggerEmailSender constructs a logging email sender stub.
func NewLoggerEmailSender(logger *slog.Logger) *LoggerEmailSender {
	return &LoggerEmailSender{logger: logger}
}

// SendEmail writes the message to the structured logger and reports success.
func (s *LoggerEmailSender) SendEmail(_ context.Context, to, kind, code, displayName string) bool {
	if s == nil || s.logger == nil {
		return true
	}
	s.logger.Info("email notification",
		"kind", kind, "to", to, "name", displayName, "code", code)
	return true
}

// LoggerSMSSender is a stand-in used when no Twilio credentials are configured.
type LoggerSMSSender struct {
	logger *slog.Logger
}

// NewLoggerSMSSender constructs a logging SMS sender stub.
func NewLoggerSMSSender(logger *slog.Logger) *LoggerSMSSender {
	return &LoggerSMSSender{logger: logger}
}

// SendSMS writes the message to the structured logger and reports success.
func (s *LoggerSMSSender) SendSMS(_ context.Context, to, kind, code string) bool {
	if s == nil || s.logger == nil {
		return true
	}
	s.logger.Info("sms notification", "kind", kind, "to", to, "code", code)
	return true
}
