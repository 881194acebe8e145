package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridEmailSender delivers verification emails through the SendGrid API.
type SendGridEmailSender struct {
	client    *sendgrid.Client
	fromEmail string
	appName   string
	logger    *slog.Logger
}

// NewSendGridEmailSender constructs a SendGrid-backed email sender.
func NewSendGridEmailSender(apiKey, fromEmail, appName string, logger *slog.Logger) *SendGridEmailSender {
	return &SendGridEmailSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		appName:   appName,
		logger:    logger,
	}
}

// SendEmail dispatches the code email. Failures are logged and reported via
// the return value only.
func (s *SendGridEmailSender) SendEmail(ctx context.Context, to, kind, code, displayName string) bool {
	subject, intro := emailCopy(kind, s.appName)
	plain := fmt.Sprintf("Hi %s,\n\n%s\n\nYour code: %s\nIt expires in 10 minutes.\n", displayName, intro, code)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>%s</p><p style=\"font-size:28px;letter-spacing:4px\"><strong>%s</strong></p><p>It expires in 10 minutes.</p>",
		displayName, intro, code)

	message := mail.NewSingleEmail(
		mail.NewEmail(s.appName, s.fromEmail), subject, mail.NewEmail(displayName, to), plain, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid dispatch failed", "kind", kind, "to", to, "error", err)
		return false
	}
	if resp.StatusCode != http.StatusAccepted {
		s.logger.Error("sendgrid dispatch rejected", "kind", kind, "to", to, "status", resp.StatusCode)
		return false
	}
	return true
}

func emailCopy(kind, appName string) (subject, intro string) {
	switch kind {
	case KindLoginChallenge:
		return "Login verification - " + appName,
			"We noticed a login from a new device. Enter this code to continue. If this wasn't you, contact support."
	default:
		return "Verify your " + appName + " account",
			"Welcome! Enter this code to verify your account."
	}
}
