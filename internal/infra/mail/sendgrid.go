package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	domainMail "enrollment_notifier/internal/domain/mail"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers through SendGrid's v3 mail API.
type SendGridSender struct {
	key     string
	host    string
	from    *sgmail.Email
	subject string
	client  *rest.Client
}

var _ domainMail.Sender = (*SendGridSender)(nil)

func NewSendGridSender(key, fromName, fromEmail, subject string) *SendGridSender {
	return &SendGridSender{
		key:     key,
		host:    sendgridHost,
		from:    sgmail.NewEmail(fromName, fromEmail),
		subject: subject,
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: 30 * time.Second}},
	}
}

func (s *SendGridSender) prepare(toEmail, toName, htmlBody string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subject
	p.AddTos(sgmail.NewEmail(toName, toEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/html", htmlBody))
	return m
}

func (s *SendGridSender) Send(ctx context.Context, toEmail, toName, htmlBody string) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(s.prepare(toEmail, toName, htmlBody))

	res, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", domainMail.ErrDelivery, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: sendgrid returned %d: %s", domainMail.ErrDelivery, res.StatusCode, res.Body)
	}
	return nil
}
