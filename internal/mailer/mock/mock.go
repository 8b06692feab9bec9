package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/mailer"
)

// Sender is a mailer implementation that logs messages and always succeeds.
// It simulates a 10ms delay to mimic real sending latency.
type Sender struct {
	logger *slog.Logger
}

// NewSender creates a new mock mail sender.
func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

// Name returns the name of this sender.
func (s *Sender) Name() string {
	return "mock-email"
}

// Send logs the message details and simulates a 10ms sending delay.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) error {
	// Simulate sending delay.
	time.Sleep(10 * time.Millisecond)

	s.logger.InfoContext(ctx, "mock mailer: message sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)

	return nil
}
