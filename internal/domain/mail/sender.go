// internal/domain/mail/sender.go
package mail

import (
	"context"
	"errors"
)

// ErrDelivery is returned by senders when the provider rejected or never received a message.
var ErrDelivery = errors.New("email delivery failed")

// Sender defines an interface for delivering one HTML message to one recipient.
// This decouples the notification logic from the concrete email provider.
type Sender interface {
	Send(ctx context.Context, toEmail, toName, htmlBody string) error
}
