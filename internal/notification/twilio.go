package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSMSSender delivers verification SMS through the Twilio API.
type TwilioSMSSender struct {
	client     *twilio.RestClient
	fromNumber string
	appName    string
	logger     *slog.Logger
}

// NewTwilioSMSSender constructs a Twilio-backed SMS sender.
func NewTwilioSMSSender(accountSID, authToken, fromNumber, appName string, logger *slog.Logger) *TwilioSMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMSSender{client: client, fromNumber: fromNumber, appName: appName, logger: logger}
}

// SendSMS dispatches the code SMS. Failures are logged and reported via the
// return value only.
func (s *TwilioSMSSender) SendSMS(_ context.Context, to, kind, code string) bool {
	var body string
	switch kind {
	case KindLoginChallenge:
		body = fmt.Sprintf("%s login verification code: %s. If you didn't attempt to log in, contact support immediately.", s.appName, code)
	default:
		body = fmt.Sprintf("Your %s verification code is: %s. Valid for 10 minutes.", s.appName, code)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(FormatPhoneNumber(to))
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		s.logger.Error("twilio dispatch failed", "kind", kind, "to", to, "error", err)
		return false
	}
	return true
}

// FormatPhoneNumber renders a stored digit string in E.164 form, assuming US
// numbers when no country code is present.
func FormatPhoneNumber(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	switch {
	case len(digits) == 10:
		return "+1" + string(digits)
	case len(digits) >= 11 && digits[0] == '1':
		return "+" + string(digits)
	default:
		return phone
	}
}
