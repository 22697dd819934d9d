package booking

import (
	"context"
	"fmt"
	"strings"

	"merritt/models"
	"merritt/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateMeetingCheckout opens a hosted checkout page for a pending booking.
func (s *DefaultBookingService) CreateMeetingCheckout(ctx context.Context, bookingID string) (*models.CheckoutSession, error) {
	if bookingID == "" {
		return nil, utils.MissingField("booking_id")
	}
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingStatusPending || b.PaymentStatus != models.PaymentStatusPending {
		return nil, utils.BadRequest("Booking is not awaiting payment").
			WithDetails(fmt.Sprintf("status=%s payment_status=%s", b.Status, b.PaymentStatus))
	}

	cents := decimal.NewFromFloat(b.TotalAmount).Shift(2).Round(0).IntPart()
	site := strings.TrimRight(s.Settings.SiteURL, "/")
	req := models.CheckoutRequest{
		CustomerEmail: b.CustomerEmail,
		Currency:      s.Settings.Currency,
		LineItems: []models.CheckoutLineItem{{
			Name:        fmt.Sprintf("Meeting room booking - %s", b.RoomName),
			Description: fmt.Sprintf("%s, %s-%s (%g h)", b.BookingDate, b.StartTime, b.EndTime, b.DurationHours),
			UnitAmount:  cents,
			Quantity:    1,
		}},
		Metadata: map[string]string{
			"booking_type":   models.BookingTypeMeetingRoom,
			"booking_id":     b.ID,
			"customer_name":  b.CustomerName,
			"customer_email": b.CustomerEmail,
			"booking_date":   b.BookingDate,
			"start_time":     b.StartTime,
		},
		SuccessURL:   site + "/merritt-workspace/booking-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:    site + "/merritt-workspace/booking?cancelled=true",
		ExpiresInMin: s.Settings.CheckoutExpiryMin,
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, utils.Internal("Failed to create checkout session", err)
	}
	if err := s.Bookings.SetCheckoutSession(ctx, b.ID, session.ID); err != nil {
		s.Logger.Error("Failed to store checkout session on booking",
			zap.String("bookingID", b.ID), zap.String("sessionID", session.ID), zap.Error(err))
	}
	s.Logger.Info("Checkout session created", zap.String("bookingID", b.ID), zap.String("sessionID", session.ID))
	return session, nil
}
