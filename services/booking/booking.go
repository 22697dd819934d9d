package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "merritt/database/repository/booking"
	"merritt/models"
	"merritt/services/events"
	"merritt/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateBooking validates the request and runs the member or the paid path.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		s.Logger.Debug("Booking request rejected", zap.Error(err))
		return nil, err
	}
	startMin, err := parseClock(req.StartTime)
	if err != nil {
		return nil, utils.BadRequest("Invalid value for field: start_time").WithDetails(err.Error())
	}
	endMin := endClock(startMin, req.DurationHours)
	if startMin < s.Settings.OpenHour*60 || endMin > (s.Settings.CloseHour+1)*60 {
		return nil, utils.BadRequest("Booking must fall within business hours").
			WithDetails(fmt.Sprintf("bookable from %s to %s", hourLabel(s.Settings.OpenHour), hourLabel(s.Settings.CloseHour+1)))
	}

	if req.IsMemberBooking {
		member, err := s.createMemberBooking(ctx, req, startMin, endMin)
		if err != nil {
			return nil, err
		}
		return &models.BookingResult{Member: member}, nil
	}
	paid, err := s.createPaidBooking(ctx, req, startMin, endMin)
	if err != nil {
		return nil, err
	}
	return &models.BookingResult{Paid: paid}, nil
}

// createMemberBooking books against a membership. Nothing is stored; the calendar
// event and the emails are the only record.
func (s *DefaultBookingService) createMemberBooking(ctx context.Context, req models.BookingRequest, startMin, endMin int) (*models.MemberBooking, error) {
	room, err := s.resolveRoom(ctx, req.RoomID, true)
	if err != nil {
		return nil, err
	}
	calendarID := s.calendarFor(room)
	hours := requestedHours(startMin, endMin, s.Settings.OpenHour, s.Settings.CloseHour)

	if err := s.checkCalendar(ctx, calendarID, req.BookingDate, hours); err != nil {
		return nil, err
	}

	now := s.clock()
	member := &models.MemberBooking{
		ID:              fmt.Sprintf("member_%d", now.UnixMilli()),
		BookingDetails:  detailsFrom(req, room, endMin),
		Status:          models.BookingStatusConfirmed,
		PaymentStatus:   models.PaymentStatusPaid,
		TotalAmount:     0,
		IsMemberBooking: true,
		CreatedAt:       now,
	}

	if s.Calendar != nil {
		in, err := s.eventInput(member, calendarID, "")
		if err != nil {
			return nil, utils.Internal("Failed to build calendar event", err)
		}
		eventID, err := s.Calendar.CreateEvent(ctx, in)
		if err != nil {
			s.Logger.Error("Failed to create calendar event for member booking",
				zap.String("bookingID", member.ID), zap.Error(err))
		} else {
			member.CalendarEventID = eventID
			member.CalendarEventCreated = true
		}
	}

	if err := s.Notifier.SendBookingConfirmation(ctx, member); err != nil {
		s.Logger.Error("Failed to send member booking confirmation", zap.String("bookingID", member.ID), zap.Error(err))
	}
	s.publish(ctx, events.MemberBooked, member.ID, map[string]any{
		"room_id":        member.RoomID,
		"booking_date":   member.BookingDate,
		"start_time":     member.StartTime,
		"duration_hours": member.DurationHours,
		"calendar_event": member.CalendarEventCreated,
	})

	s.Logger.Info("Member booking confirmed",
		zap.String("bookingID", member.ID),
		zap.String("date", member.BookingDate),
		zap.String("start", member.StartTime),
		zap.Bool("calendarEventCreated", member.CalendarEventCreated))
	return member, nil
}

// createPaidBooking stores a pending booking that waits for checkout.
func (s *DefaultBookingService) createPaidBooking(ctx context.Context, req models.BookingRequest, startMin, endMin int) (*models.Booking, error) {
	if req.RoomID == "" {
		return nil, utils.MissingField("room_id")
	}
	if req.TotalAmount == nil {
		return nil, utils.MissingField("total_amount")
	}
	amount := decimal.NewFromFloat(*req.TotalAmount).Round(2)
	if !amount.IsPositive() {
		return nil, utils.BadRequest("Invalid value for field: total_amount").WithDetails("must be greater than 0")
	}

	room, err := s.resolveRoom(ctx, req.RoomID, false)
	if err != nil {
		return nil, err
	}
	hours := requestedHours(startMin, endMin, s.Settings.OpenHour, s.Settings.CloseHour)

	stored, err := s.persistedBusy(ctx, room.ID, req.BookingDate)
	if err != nil {
		return nil, utils.Internal("Failed to check room availability", err)
	}
	if stored.intersects(hours) {
		return nil, slotConflict(hours)
	}
	if err := s.checkCalendar(ctx, s.calendarFor(room), req.BookingDate, hours); err != nil {
		return nil, err
	}

	now := s.clock()
	b := &models.Booking{
		ID:               uuid.NewString(),
		BookingDetails:   detailsFrom(req, room, endMin),
		TotalAmount:      amount.InexactFloat64(),
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.PaymentStatusPending,
		ConfirmationSent: false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Bookings.Create(ctx, b, hours.labels()); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			return nil, slotConflict(hours)
		}
		return nil, utils.Internal("Failed to create booking", err)
	}

	s.publish(ctx, events.BookingCreated, b.ID, map[string]any{
		"room_id":      b.RoomID,
		"booking_date": b.BookingDate,
		"start_time":   b.StartTime,
		"total_amount": b.TotalAmount,
	})
	s.Logger.Info("Paid booking created",
		zap.String("bookingID", b.ID),
		zap.String("roomID", b.RoomID),
		zap.String("date", b.BookingDate),
		zap.String("start", b.StartTime),
		zap.Float64("amount", b.TotalAmount))
	return b, nil
}

// checkCalendar rejects hours already covered by any event on the calendar. When
// the calendar cannot be read, fail-closed refuses the booking and fail-open lets it through.
func (s *DefaultBookingService) checkCalendar(ctx context.Context, calendarID, date string, hours hourSet) error {
	busy, err := s.calendarBusy(ctx, calendarID, date)
	if err != nil {
		if s.Settings.FailMode == FailClosed {
			return utils.Unavailable("Unable to verify room availability", err)
		}
		s.Logger.Warn("Calendar conflict check skipped", zap.String("date", date), zap.Error(err))
		return nil
	}
	if busy.intersects(hours) {
		return slotConflict(hours)
	}
	return nil
}

func slotConflict(hours hourSet) *utils.AppError {
	return utils.Conflict("Time slot is not available").
		WithDetails("requested hours: " + strings.Join(hours.labels(), ", "))
}

func detailsFrom(req models.BookingRequest, room *models.Room, endMin int) models.BookingDetails {
	return models.BookingDetails{
		RoomID:        room.ID,
		RoomName:      room.Name,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone: req.CustomerPhone,
		CompanyName:   req.CompanyName,
		BookingDate:   req.BookingDate,
		StartTime:     req.StartTime,
		EndTime:       formatClock(endMin),
		DurationHours: req.DurationHours,
		Attendees:     req.Attendees,
		Purpose:       req.Purpose,
	}
}

// eventIDFor derives the calendar event id of a paid booking. The provider only
// accepts base32hex characters, which a hyphen-free uuid satisfies.
func eventIDFor(bookingID string) string {
	return "bk" + strings.ReplaceAll(bookingID, "-", "")
}

func (s *DefaultBookingService) eventInput(b models.BookingVariant, calendarID, eventID string) (models.CalendarEventInput, error) {
	d := b.Info()
	start, err := time.ParseInLocation("2006-01-02 15:04", d.BookingDate+" "+d.StartTime, s.location())
	if err != nil {
		return models.CalendarEventInput{}, fmt.Errorf("invalid booking time: %w", err)
	}
	startMin, _ := parseClock(d.StartTime)
	end := start.Add(time.Duration(endClock(startMin, d.DurationHours)-startMin) * time.Minute)

	summary := "Meeting room booking: " + d.CustomerName
	if b.Kind() == models.BookingKindMember {
		summary = "Member booking: " + d.CustomerName
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Booking ID: %s\n", b.BookingID())
	fmt.Fprintf(&desc, "Customer: %s <%s>\n", d.CustomerName, d.CustomerEmail)
	if d.CustomerPhone != "" {
		fmt.Fprintf(&desc, "Phone: %s\n", d.CustomerPhone)
	}
	if d.CompanyName != "" {
		fmt.Fprintf(&desc, "Company: %s\n", d.CompanyName)
	}
	fmt.Fprintf(&desc, "Attendees: %d\n", d.Attendees)
	if d.Purpose != "" {
		fmt.Fprintf(&desc, "Purpose: %s\n", d.Purpose)
	}
	if b.Amount() > 0 {
		fmt.Fprintf(&desc, "Paid: $%.2f %s\n", b.Amount(), strings.ToUpper(s.Settings.Currency))
	}

	return models.CalendarEventInput{
		ID:          eventID,
		CalendarID:  calendarID,
		Summary:     summary,
		Description: desc.String(),
		Location:    s.Settings.WorkspaceAddress,
		Start:       start,
		End:         end,
		Private: map[string]string{
			"booking_id":   b.BookingID(),
			"booking_kind": string(b.Kind()),
		},
	}, nil
}
