package booking

import (
	"context"
	"errors"
	"strings"

	bookingRepo "merritt/database/repository/booking"
	"merritt/models"
	"merritt/services/calendar"
	"merritt/services/events"
	"merritt/utils"

	"go.uber.org/zap"
)

// ListBookings returns stored (paid) bookings for one email or one date. Member
// bookings are never stored. An unfiltered listing is refused.
func (s *DefaultBookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	filter.Email = strings.ToLower(strings.TrimSpace(filter.Email))
	filter.Date = strings.TrimSpace(filter.Date)
	if filter.Email == "" && filter.Date == "" {
		return nil, utils.MissingField("email or date")
	}
	bookings, err := s.Bookings.List(ctx, filter)
	if err != nil {
		return nil, utils.Internal("Failed to fetch bookings", err)
	}
	return bookings, nil
}

// ConfirmBooking is the manual counterpart of a completed checkout.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, id string, req ConfirmRequest) (*models.Booking, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BookingStatusCancelled {
		return nil, utils.Conflict("Booking is cancelled").WithDetails("a cancelled booking no longer holds its time slot")
	}

	upd := models.StatusUpdate{
		Status:                models.BookingStatusConfirmed,
		PaymentStatus:         models.PaymentStatusPaid,
		StripeSessionID:       req.StripeSessionID,
		StripePaymentIntentID: req.StripePaymentIntentID,
	}
	from := []string{models.BookingStatusPending, models.BookingStatusConfirmed}
	if _, err := s.Bookings.Transition(ctx, id, from, upd); err != nil {
		return nil, utils.Internal("Failed to confirm booking", err)
	}

	b, err = s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingStatusConfirmed {
		return nil, utils.Conflict("Booking is cancelled")
	}
	s.finalizeConfirmation(ctx, b)
	return b, nil
}

// CancelBooking cancels a pending or confirmed booking and frees its hours.
// Cancelling twice is not an error.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, id, reason string) (*models.Booking, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "cancelled by staff"
	}
	upd := models.StatusUpdate{Status: models.BookingStatusCancelled, CancellationReason: reason}
	from := []string{models.BookingStatusPending, models.BookingStatusConfirmed}
	changed, err := s.Bookings.Transition(ctx, id, from, upd)
	if err != nil {
		return nil, utils.Internal("Failed to cancel booking", err)
	}
	if !changed {
		return b, nil
	}

	s.cancelCalendarEvent(ctx, b)
	if err := s.Notifier.SendBookingCancellation(ctx, b); err != nil {
		s.Logger.Error("Failed to send cancellation notice", zap.String("bookingID", id), zap.Error(err))
	}
	s.publish(ctx, events.BookingCancelled, id, map[string]any{"reason": reason})
	s.Logger.Info("Booking cancelled", zap.String("bookingID", id), zap.String("reason", reason))

	return s.loadBooking(ctx, id)
}

func (s *DefaultBookingService) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, utils.NotFound("Booking not found")
		}
		return nil, utils.Internal("Failed to load booking", err)
	}
	return b, nil
}

// finalizeConfirmation runs the side effects of a confirmed booking: the calendar
// event and the confirmation email. Each step is guarded by stored state so running
// it again for the same booking does nothing. Failures are logged, never returned;
// the confirmation itself is already committed.
func (s *DefaultBookingService) finalizeConfirmation(ctx context.Context, b *models.Booking) {
	if !b.HasCalendarEvent() {
		s.attachCalendarEvent(ctx, b)
	}

	if b.ConfirmationSent {
		return
	}
	claimed, err := s.Bookings.MarkConfirmationSent(ctx, b.ID)
	if err != nil {
		s.Logger.Error("Failed to mark confirmation sent", zap.String("bookingID", b.ID), zap.Error(err))
		return
	}
	if !claimed {
		return
	}
	b.ConfirmationSent = true
	if err := s.Notifier.SendBookingConfirmation(ctx, b); err != nil {
		s.Logger.Error("Failed to send booking confirmation", zap.String("bookingID", b.ID), zap.Error(err))
	}
	s.publish(ctx, events.BookingConfirmed, b.ID, map[string]any{
		"room_id":      b.RoomID,
		"booking_date": b.BookingDate,
		"start_time":   b.StartTime,
		"total_amount": b.TotalAmount,
	})
}

// attachCalendarEvent creates the booking's calendar event under a deterministic id
// and stores it. A duplicate reported by the provider means an earlier attempt got
// there first, and its event is adopted.
func (s *DefaultBookingService) attachCalendarEvent(ctx context.Context, b *models.Booking) {
	if s.Calendar == nil {
		return
	}
	room, err := s.resolveRoom(ctx, b.RoomID, true)
	if err != nil {
		room = s.placeholderRoom(b.RoomID)
	}
	in, err := s.eventInput(b, s.calendarFor(room), eventIDFor(b.ID))
	if err != nil {
		s.Logger.Error("Failed to build calendar event", zap.String("bookingID", b.ID), zap.Error(err))
		return
	}

	eventID, err := s.Calendar.CreateEvent(ctx, in)
	if err != nil && !errors.Is(err, calendar.ErrDuplicateEvent) {
		s.Logger.Error("Failed to create calendar event", zap.String("bookingID", b.ID), zap.Error(err))
		return
	}
	if eventID == "" {
		eventID = in.ID
	}

	stored, err := s.Bookings.SetCalendarEventID(ctx, b.ID, eventID)
	if err != nil {
		s.Logger.Error("Failed to store calendar event id", zap.String("bookingID", b.ID), zap.String("eventID", eventID), zap.Error(err))
	}
	b.CalendarEventID = &eventID
	s.Logger.Info("Calendar event attached",
		zap.String("bookingID", b.ID),
		zap.String("eventID", eventID),
		zap.Bool("stored", stored))
}

func (s *DefaultBookingService) cancelCalendarEvent(ctx context.Context, b *models.Booking) {
	if s.Calendar == nil || !b.HasCalendarEvent() {
		return
	}
	room, err := s.resolveRoom(ctx, b.RoomID, true)
	if err != nil {
		room = s.placeholderRoom(b.RoomID)
	}
	if err := s.Calendar.CancelEvent(ctx, s.calendarFor(room), *b.CalendarEventID); err != nil {
		s.Logger.Error("Failed to cancel calendar event",
			zap.String("bookingID", b.ID), zap.String("eventID", *b.CalendarEventID), zap.Error(err))
		return
	}
	s.Logger.Info("Calendar event cancelled", zap.String("bookingID", b.ID), zap.String("eventID", *b.CalendarEventID))
}
