// Package logsender is a mailer.Sender that only logs. It is used when no
// email provider is configured.
package logsender

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer"
)

// Sender logs each message at INFO and reports success.
type Sender struct {
	logger *slog.Logger
}

var _ mailer.Sender = (*Sender)(nil)

// New creates a logging sender.
func New(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, msg *mailer.Message) (string, error) {
	id := uuid.NewString()
	s.logger.InfoContext(ctx, "email not delivered, no provider configured",
		slog.String("message_id", id),
		slog.String("from", msg.From),
		slog.String("to", strings.Join(msg.To, ",")),
		slog.String("subject", msg.Subject),
		slog.Int("text_bytes", len(msg.Text)),
		slog.Int("html_bytes", len(msg.HTML)),
	)
	return id, nil
}
