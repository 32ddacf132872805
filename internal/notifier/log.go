package notifier

import (
	"context"
	"log/slog"

	"github.com/quotecast/quotecast/internal/model"
)

// LogMailer logs emails instead of sending them.
// Useful for development and testing.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a log-based mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With("component", "mailer", "transport", "log")}
}

// Send logs the email and reports success.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "email (dev mode, not sent)",
		slog.String("to", model.RedactEmail(msg.To)),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return nil
}
