package mail

import (
	"context"

	"github.com/dmitrijs2005/contactkeeper/internal/logging"
)

// LogMailer writes messages to the log instead of delivering them. It is used
// when no SendGrid key is configured, so local runs still expose the
// verification link.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info(ctx, "mail not delivered, no transport configured",
		"to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
