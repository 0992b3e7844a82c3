// Package mail delivers password-reset messages.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

const resetSubject = "Reset your password"

func resetText(resetURL, token string) string {
	if resetURL == "" {
		return fmt.Sprintf("Use this token to reset your password within the next hour:\n\n%s\n", token)
	}
	return fmt.Sprintf("Open this link within the next hour to reset your password:\n\n%s?token=%s\n", resetURL, token)
}

// Console logs reset tokens instead of sending them. Used in development.
type Console struct {
	logger   *slog.Logger
	resetURL string
}

func NewConsole(logger *slog.Logger, resetURL string) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger, resetURL: resetURL}
}

func (c *Console) SendPasswordReset(_ context.Context, to, token string) error {
	c.logger.Info("password reset mail", "to", to, "subject", resetSubject, "body", resetText(c.resetURL, token))
	return nil
}

// SendGrid sends mail through the SendGrid v3 API.
type SendGrid struct {
	key      string
	from     *sgmail.Email
	resetURL string
}

func NewSendGrid(key, appName, fromEmail, resetURL string) *SendGrid {
	return &SendGrid{
		key:      key,
		from:     sgmail.NewEmail(appName, fromEmail),
		resetURL: resetURL,
	}
}

func (s *SendGrid) SendPasswordReset(_ context.Context, to, token string) error {
	p := sgmail.NewPersonalization()
	p.Subject = resetSubject
	p.AddTos(sgmail.NewEmail("", to))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", resetText(s.resetURL, token)))

	req := sendgrid.GetRequest(s.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
