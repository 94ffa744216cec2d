package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/digital-twin-ai/platform/pkg/logging"
)

// Service sends booking-related notifications: a confirmation to the
// visitor and, when configured, a heads-up to the site owner.
type Service struct {
	email      EmailSender
	ownerEmail string
	ownerName  string
	logger     *logging.Logger
}

// NewService creates a notification service. ownerEmail may be empty
// to disable owner notifications.
func NewService(email EmailSender, ownerEmail, ownerName string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		ownerEmail: ownerEmail,
		ownerName:  ownerName,
		logger:     logger,
	}
}

// SendBookingConfirmation emails the visitor after their meeting
// request is recorded, then notifies the owner. The owner email is
// best effort and never fails the confirmation.
func (s *Service) SendBookingConfirmation(ctx context.Context, to, name string, when time.Time, meetingType string) error {
	if s.email == nil {
		return fmt.Errorf("notify: email sender not configured")
	}

	displayName := name
	if displayName == "" {
		displayName = "there"
	}
	whenText := when.Format("Monday, Jan 2, 2006 at 15:04")
	topic := meetingTopic(meetingType)

	msg := EmailMessage{
		To:      to,
		ToName:  name,
		Subject: "Your meeting request is in",
		Body: fmt.Sprintf(
			"Hi %s,\n\nThanks for reaching out. Your %s is requested for %s.\nYou'll get a follow-up once the time is confirmed.\n\n- Digital Twin",
			displayName, topic, whenText,
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return err
	}

	if s.ownerEmail != "" {
		ownerMsg := EmailMessage{
			To:      s.ownerEmail,
			ToName:  s.ownerName,
			Subject: fmt.Sprintf("New booking request: %s", topic),
			Body: fmt.Sprintf(
				"%s (%s) requested a %s for %s.",
				displayName, to, topic, whenText,
			),
		}
		if err := s.email.Send(ctx, ownerMsg); err != nil {
			s.logger.Warn("owner booking notification failed", "error", err)
		}
	}
	return nil
}

func meetingTopic(meetingType string) string {
	topic := strings.ReplaceAll(meetingType, "_", " ")
	if topic == "" {
		topic = "meeting"
	}
	return topic
}
