// internal/app/notification_service.go
package app

import (
	"context"
	"fmt"
	"strings"

	"enrollment_notifier/internal/domain/enrollment"
	"enrollment_notifier/internal/domain/mail"

	"github.com/sirupsen/logrus"
)

// Outcome describes what happened to one class handed to the dispatcher.
type Outcome int

const (
	// OutcomeDeferred means the data was incomplete; nothing was sent or recorded.
	OutcomeDeferred Outcome = iota
	// OutcomeDelivered means every recipient accepted the message.
	OutcomeDelivered
	// OutcomePartial means at least one recipient failed. The class is still recorded.
	OutcomePartial
	// OutcomeFailed means no recipient accepted the message. The class is still recorded.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeferred:
		return "deferred"
	case OutcomeDelivered:
		return "delivered"
	case OutcomePartial:
		return "partial"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Renderer turns a notification into an HTML body.
type Renderer interface {
	Render(n enrollment.Notification) (string, error)
}

// NotificationDispatcher sends one enrollment notification to its recipients
// and records the class so it is never notified again.
type NotificationDispatcher struct {
	renderer       Renderer
	sender         mail.Sender
	notified       enrollment.NotifiedRepository
	oversightEmail string
	logger         logrus.FieldLogger
}

func NewNotificationDispatcher(
	renderer Renderer,
	sender mail.Sender,
	notified enrollment.NotifiedRepository,
	oversightEmail string,
	logger logrus.FieldLogger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		renderer:       renderer,
		sender:         sender,
		notified:       notified,
		oversightEmail: oversightEmail,
		logger:         logger,
	}
}

type recipient struct {
	email string
	name  string
}

// Dispatch validates n, sends it to each recipient independently and then
// records the class. Delivery failures do not prevent recording; only a
// failed record is returned as an error.
func (s *NotificationDispatcher) Dispatch(ctx context.Context, n enrollment.Notification) (Outcome, error) {
	log := s.logger.WithField("class_id", n.ClassID)

	students := enrollment.ValidStudents(n.Students)
	if !n.Detail.Valid() || len(students) == 0 || strings.TrimSpace(n.InstructorEmail) == "" {
		log.WithFields(logrus.Fields{
			"has_date":     n.Detail.Date != "",
			"has_location": n.Detail.Location != "",
			"students":     len(students),
		}).Info("No email found")
		return OutcomeDeferred, nil
	}
	n.Students = students

	body, err := s.renderer.Render(n)
	if err != nil {
		return OutcomeDeferred, fmt.Errorf("render notification for class %s: %w", n.ClassID, err)
	}

	recipients := s.recipients(n)
	sent := 0
	for _, r := range recipients {
		rlog := log.WithField("recipient", r.email)
		if err := s.sender.Send(ctx, r.email, r.name, body); err != nil {
			rlog.WithError(err).Error("Failed to send enrollment email")
			continue
		}
		sent++
		rlog.Info("Enrollment email sent")
	}

	if err := s.notified.Add(ctx, n.ClassID); err != nil {
		return outcomeFor(sent, len(recipients)), fmt.Errorf("record notified class %s: %w", n.ClassID, err)
	}
	log.WithField("delivered", fmt.Sprintf("%d/%d", sent, len(recipients))).Info("Class recorded as notified")
	return outcomeFor(sent, len(recipients)), nil
}

// recipients lists the instructor, the oversight address and the coordinator,
// dropping blanks and case-insensitive duplicates.
func (s *NotificationDispatcher) recipients(n enrollment.Notification) []recipient {
	candidates := []recipient{
		{email: n.InstructorEmail, name: n.InstructorName},
		{email: s.oversightEmail},
		{email: n.CoordinatorEmail},
	}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]recipient, 0, len(candidates))
	for _, c := range candidates {
		c.email = strings.TrimSpace(c.email)
		key := strings.ToLower(c.email)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func outcomeFor(sent, total int) Outcome {
	switch {
	case sent == total:
		return OutcomeDelivered
	case sent == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}
