package mail

import (
	"context"
	"sync"

	domainMail "enrollment_notifier/internal/domain/mail"

	"github.com/sirupsen/logrus"
)

// SentMessage is what the console sender recorded.
type SentMessage struct {
	To   string
	Name string
	HTML string
}

// ConsoleSender logs messages instead of delivering them. Development only.
type ConsoleSender struct {
	logger  logrus.FieldLogger
	logBody bool
	mu      sync.Mutex
	sent    []SentMessage
}

var _ domainMail.Sender = (*ConsoleSender)(nil)

func NewConsoleSender(logger logrus.FieldLogger, logBody bool) *ConsoleSender {
	return &ConsoleSender{logger: logger, logBody: logBody}
}

func (s *ConsoleSender) Send(_ context.Context, toEmail, toName, htmlBody string) error {
	entry := s.logger.WithFields(logrus.Fields{"to": toEmail, "name": toName, "bytes": len(htmlBody)})
	if s.logBody {
		entry = entry.WithField("html", htmlBody)
	}
	entry.Info("console email sender: message not delivered")

	s.mu.Lock()
	s.sent = append(s.sent, SentMessage{To: toEmail, Name: toName, HTML: htmlBody})
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of every message recorded so far.
func (s *ConsoleSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.sent...)
}
