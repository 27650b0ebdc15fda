package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domainMail "enrollment_notifier/internal/domain/mail"

	"github.com/sendgrid/rest"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// BrevoSender delivers through Brevo's transactional email API.
type BrevoSender struct {
	apiKey   string
	endpoint string
	from     brevoAddress
	subject  string
	client   *rest.Client
}

var _ domainMail.Sender = (*BrevoSender)(nil)

func NewBrevoSender(apiKey, fromName, fromEmail, subject string) *BrevoSender {
	return &BrevoSender{
		apiKey:   apiKey,
		endpoint: brevoEndpoint,
		from:     brevoAddress{Name: fromName, Email: fromEmail},
		subject:  subject,
		client:   &rest.Client{HTTPClient: &http.Client{Timeout: 30 * time.Second}},
	}
}

// Send posts one message. Brevo acknowledges accepted messages with 201.
func (s *BrevoSender) Send(ctx context.Context, toEmail, toName, htmlBody string) error {
	body, err := json.Marshal(brevoPayload{
		Sender:      s.from,
		To:          []brevoAddress{{Name: toName, Email: toEmail}},
		Subject:     s.subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("encode brevo payload: %w", err)
	}

	res, err := s.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: s.endpoint,
		Headers: map[string]string{
			"accept":       "application/json",
			"api-key":      s.apiKey,
			"content-type": "application/json",
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("%w: brevo: %v", domainMail.ErrDelivery, err)
	}
	if res.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: brevo returned %d: %s", domainMail.ErrDelivery, res.StatusCode, res.Body)
	}
	return nil
}
