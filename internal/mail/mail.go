// Package mail delivers transactional email such as password reset links.
package mail

import (
	"context"
	"fmt"

	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/rs/zerolog"
)

// Message is a single outgoing email.
type Message struct {
	To          string
	ToName      string
	Subject     string
	TextContent string
	HTMLContent string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the mailer for MAIL_DRIVER.
func New(cfg *config.Config, log zerolog.Logger) (Mailer, error) {
	switch cfg.MailDriver {
	case "", "console":
		return NewConsole(cfg.AppName, cfg.MailFrom, log), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("mail driver sendgrid requires SENDGRID_API_KEY")
		}
		return NewSendGrid(cfg.SendGridAPIKey, cfg.AppName, cfg.MailFrom), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
	}
}

func subject(appName, s string) string {
	if appName == "" {
		return s
	}
	return "[" + appName + "] " + s
}
