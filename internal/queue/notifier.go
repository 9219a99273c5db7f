package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/models"
)

type ProfileLookup interface {
	GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*models.Profile, error)
}

// Notifier turns events into emails, one per recipient.
type Notifier struct {
	profiles ProfileLookup
	mailer   Mailer
	logger   *slog.Logger
}

func NewNotifier(profiles ProfileLookup, mailer Mailer, logger *slog.Logger) *Notifier {
	return &Notifier{profiles: profiles, mailer: mailer, logger: logger}
}

func (n *Notifier) Handle(ctx context.Context, event models.ReservationEvent) error {
	var errs []error
	for _, id := range event.Recipients {
		profile, err := n.profiles.GetProfile(ctx, id, "")
		if err != nil {
			errs = append(errs, fmt.Errorf("recipient %s: %w", id, err))
			continue
		}
		if profile.Email == "" {
			n.logger.Warn("recipient has no email, skipping", "user_id", id, "type", event.Type)
			continue
		}

		subject, body := ComposeMessage(event, profile)
		if err := n.mailer.Send(ctx, profile.Email, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", id, err))
			continue
		}
		n.logger.Info("notification sent", "user_id", id, "type", event.Type)
	}
	return errors.Join(errs...)
}

// ComposeMessage renders the subject and plain text body for one recipient.
func ComposeMessage(event models.ReservationEvent, to *models.Profile) (string, string) {
	var subject, line string
	switch event.Type {
	case models.EventReservationCreated:
		subject = "Your reservation is booked"
		line = "Your reservation has been created and is waiting for payment."
	case models.EventReservationPaid:
		subject = "Payment received"
		line = "We received your payment. Your reservation is confirmed."
	case models.EventReservationCancelled:
		subject = "Reservation cancelled"
		line = "Your reservation has been cancelled and the rooms released."
	case models.EventReservationStatus:
		subject = "Reservation updated"
		line = fmt.Sprintf("Your reservation is now %s.", event.Status)
	case models.EventShareCreated:
		subject = "You have been invited to split a reservation"
		line = fmt.Sprintf("A reservation was shared with you. Your part is %.2f and must be paid within 24 hours.", event.Amount)
	case models.EventSharePayment:
		subject = "A participant paid their share"
		line = "One of the participants in your shared reservation has paid."
	case models.EventShareConfirmed:
		subject = "Shared reservation confirmed"
		line = "Everyone has paid. The reservation is confirmed."
	case models.EventConnectionRequested:
		subject = "New connection request"
		line = "Someone wants to connect with you. Open the app to respond."
	default:
		subject = "Reservation notification"
		line = fmt.Sprintf("Event %s.", event.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n%s\n", to.DisplayName(), line)
	if event.ReservationID != "" {
		fmt.Fprintf(&b, "\nReservation: %s\n", event.ReservationID)
	}
	if event.Dates != nil {
		fmt.Fprintf(&b, "Dates: %s to %s\n", event.Dates.Start.Format(models.DayLayout), event.Dates.End.Format(models.DayLayout))
	}
	return subject, b.String()
}
