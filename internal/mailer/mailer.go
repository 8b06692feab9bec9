package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender defines the interface for delivering email through a specific
// transport. Delivery is best effort: callers log failures and move on.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}
