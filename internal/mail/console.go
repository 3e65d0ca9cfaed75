package mail

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Console writes messages to the log instead of delivering them. Sent
// messages are kept for inspection.
type Console struct {
	appName string
	from    string
	log     zerolog.Logger

	mu   sync.Mutex
	sent []Message
}

// NewConsole creates a Console mailer.
func NewConsole(appName, from string, log zerolog.Logger) *Console {
	return &Console{
		appName: appName,
		from:    from,
		log:     log.With().Str("component", "mail").Logger(),
	}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	msg.Subject = subject(c.appName, msg.Subject)

	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	c.log.Info().
		Str("from", c.from).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.TextContent).
		Msg("Email (console)")
	return nil
}

// Sent returns a copy of the messages sent so far.
func (c *Console) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}
