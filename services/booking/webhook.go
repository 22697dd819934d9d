package booking

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "merritt/database/repository/booking"
	"merritt/models"
	"merritt/services/events"
	"merritt/utils"

	"go.uber.org/zap"
)

// HandlePaymentEvent applies one gateway event to the booking it references.
// Every step checks stored state first, so duplicated or reordered deliveries
// leave the booking where a single in-order delivery would.
func (s *DefaultBookingService) HandlePaymentEvent(ctx context.Context, evt *models.PaymentEvent) error {
	switch evt.Type {
	case models.EventCheckoutCompleted:
		return s.onCheckoutCompleted(ctx, evt)
	case models.EventPaymentSucceeded:
		return s.onPaymentSucceeded(ctx, evt)
	case models.EventPaymentFailed:
		return s.onPaymentFailed(ctx, evt)
	case models.EventCheckoutExpired:
		return s.onCheckoutExpired(ctx, evt)
	default:
		s.Logger.Debug("Ignoring payment event", zap.String("type", evt.Type), zap.String("eventID", evt.ID))
		return nil
	}
}

func (s *DefaultBookingService) onCheckoutCompleted(ctx context.Context, evt *models.PaymentEvent) error {
	b, err := s.bookingForEvent(ctx, evt)
	if err != nil {
		return err
	}

	if b.Status == models.BookingStatusPending {
		upd := models.StatusUpdate{
			Status:                models.BookingStatusConfirmed,
			PaymentStatus:         models.PaymentStatusPaid,
			StripeSessionID:       evt.SessionID,
			StripePaymentIntentID: evt.PaymentIntentID,
		}
		if _, err := s.Bookings.Transition(ctx, b.ID, []string{models.BookingStatusPending}, upd); err != nil {
			return fmt.Errorf("confirm booking %s: %w", b.ID, err)
		}
		// Re-read: a concurrent delivery may have moved it first.
		if b, err = s.loadBooking(ctx, b.ID); err != nil {
			return err
		}
	}

	switch b.Status {
	case models.BookingStatusConfirmed, models.BookingStatusCompleted:
		s.Logger.Info("Booking paid", zap.String("bookingID", b.ID), zap.String("sessionID", evt.SessionID))
		s.finalizeConfirmation(ctx, b)
		return nil
	case models.BookingStatusCancelled:
		return s.recordLatePayment(ctx, b, evt)
	}
	return nil
}

func (s *DefaultBookingService) onPaymentSucceeded(ctx context.Context, evt *models.PaymentEvent) error {
	b, err := s.bookingForEvent(ctx, evt)
	if err != nil {
		return err
	}
	switch b.Status {
	case models.BookingStatusPending:
		upd := models.StatusUpdate{
			Status:                models.BookingStatusConfirmed,
			PaymentStatus:         models.PaymentStatusPaid,
			StripePaymentIntentID: evt.PaymentIntentID,
		}
		if _, err := s.Bookings.Transition(ctx, b.ID, []string{models.BookingStatusPending}, upd); err != nil {
			return fmt.Errorf("confirm booking %s: %w", b.ID, err)
		}
	case models.BookingStatusCancelled:
		return s.recordLatePayment(ctx, b, evt)
	}
	return nil
}

func (s *DefaultBookingService) onPaymentFailed(ctx context.Context, evt *models.PaymentEvent) error {
	b, err := s.bookingForEvent(ctx, evt)
	if err != nil {
		return err
	}
	if b.PaymentStatus == models.PaymentStatusPaid {
		s.Logger.Warn("Ignoring payment failure for a paid booking", zap.String("bookingID", b.ID), zap.String("eventID", evt.ID))
		return nil
	}

	reason := "payment failed"
	if evt.FailureMessage != "" {
		reason = "payment failed: " + evt.FailureMessage
	}
	upd := models.StatusUpdate{
		Status:                models.BookingStatusCancelled,
		PaymentStatus:         models.PaymentStatusFailed,
		StripePaymentIntentID: evt.PaymentIntentID,
		CancellationReason:    reason,
		UnlessPaymentStatus:   models.PaymentStatusPaid,
	}
	from := []string{models.BookingStatusPending, models.BookingStatusConfirmed}
	changed, err := s.Bookings.Transition(ctx, b.ID, from, upd)
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", b.ID, err)
	}
	if !changed {
		return nil
	}

	s.cancelCalendarEvent(ctx, b)
	s.publish(ctx, events.BookingCancelled, b.ID, map[string]any{"reason": reason})
	s.Logger.Info("Booking cancelled after payment failure", zap.String("bookingID", b.ID), zap.String("reason", reason))
	return nil
}

func (s *DefaultBookingService) onCheckoutExpired(ctx context.Context, evt *models.PaymentEvent) error {
	b, err := s.bookingForEvent(ctx, evt)
	if err != nil {
		return err
	}
	upd := models.StatusUpdate{
		Status:             models.BookingStatusCancelled,
		PaymentStatus:      models.PaymentStatusExpired,
		CancellationReason: "checkout session expired",
	}
	changed, err := s.Bookings.Transition(ctx, b.ID, []string{models.BookingStatusPending}, upd)
	if err != nil {
		return fmt.Errorf("expire booking %s: %w", b.ID, err)
	}
	if changed {
		s.publish(ctx, events.BookingCancelled, b.ID, map[string]any{"reason": "expired"})
		s.Logger.Info("Booking released after checkout expiry", zap.String("bookingID", b.ID))
	}
	return nil
}

// recordLatePayment handles money arriving for a booking that was already
// cancelled. The booking stays cancelled; its hours may be gone. The payment is
// recorded and the manager is asked to rebook or refund.
func (s *DefaultBookingService) recordLatePayment(ctx context.Context, b *models.Booking, evt *models.PaymentEvent) error {
	upd := models.StatusUpdate{
		PaymentStatus:         models.PaymentStatusPaid,
		StripePaymentIntentID: evt.PaymentIntentID,
		UnlessPaymentStatus:   models.PaymentStatusPaid,
	}
	changed, err := s.Bookings.Transition(ctx, b.ID, []string{models.BookingStatusCancelled}, upd)
	if err != nil {
		return fmt.Errorf("record payment for booking %s: %w", b.ID, err)
	}
	if !changed {
		return nil
	}
	s.Logger.Warn("Payment received for cancelled booking", zap.String("bookingID", b.ID), zap.String("eventID", evt.ID))

	body := fmt.Sprintf("Booking %s for %s <%s> on %s at %s was cancelled (%s) before payment %s completed. Rebook or refund manually.",
		b.ID, b.CustomerName, b.CustomerEmail, b.BookingDate, b.StartTime, b.CancellationReason, evt.PaymentIntentID)
	if err := s.Notifier.AlertManager(ctx, "Payment received for a cancelled booking", body); err != nil {
		s.Logger.Error("Failed to alert manager", zap.String("bookingID", b.ID), zap.Error(err))
	}
	return nil
}

// bookingForEvent finds the booking an event refers to: by payment intent first,
// then by the booking_id metadata.
func (s *DefaultBookingService) bookingForEvent(ctx context.Context, evt *models.PaymentEvent) (*models.Booking, error) {
	if evt.PaymentIntentID != "" && evt.Type != models.EventCheckoutCompleted {
		b, err := s.Bookings.GetByPaymentIntent(ctx, evt.PaymentIntentID)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, fmt.Errorf("find booking by payment intent: %w", err)
		}
	}
	id := evt.Metadata["booking_id"]
	if id == "" {
		return nil, utils.NotFound("Booking not found").WithDetails("event carries no booking reference")
	}
	return s.loadBooking(ctx, id)
}
