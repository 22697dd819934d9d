package booking

import (
	"context"
	"time"

	blockedRepo "merritt/database/repository/blocked"
	bookingRepo "merritt/database/repository/booking"
	roomRepo "merritt/database/repository/room"
	"merritt/models"
	"merritt/services/calendar"
	"merritt/services/events"
	"merritt/services/notification"
	"merritt/services/payment"

	"go.uber.org/zap"
)

// BookingService is the meeting-room side of the workspace: availability, the member
// and paid booking workflows, and the payment state machine for paid bookings.
type BookingService interface {
	GetAvailability(ctx context.Context, roomID, date string) (*models.Availability, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	ConfirmBooking(ctx context.Context, id string, req ConfirmRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, id, reason string) (*models.Booking, error)
	CreateMeetingCheckout(ctx context.Context, bookingID string) (*models.CheckoutSession, error)
	HandlePaymentEvent(ctx context.Context, evt *models.PaymentEvent) error
}

// ConfirmRequest carries the optional payment references of a manual confirmation.
type ConfirmRequest struct {
	StripeSessionID       string `json:"stripe_session_id"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id"`
}

// FailMode decides what availability reports when a busy-time source is unreachable.
type FailMode string

const (
	// FailOpen treats an unreachable source as having no busy hours.
	FailOpen FailMode = "open"
	// FailClosed treats an unreachable source as making every hour busy.
	FailClosed FailMode = "closed"
)

// Settings holds the business rules the service is configured with.
type Settings struct {
	OpenHour          int
	CloseHour         int
	Location          *time.Location
	FailMode          FailMode
	DefaultRoomID     string
	DefaultRoomName   string
	DefaultCalendarID string
	Currency          string
	CheckoutExpiryMin int
	SiteURL           string
	WorkspaceAddress  string
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Rooms    roomRepo.RoomRepository
	Bookings bookingRepo.BookingRepository
	Blocked  blockedRepo.BlockedRepository
	Calendar calendar.Calendar
	Gateway  payment.Gateway
	Notifier notification.NotificationService
	Events   events.Publisher
	Settings Settings
	Logger   *zap.Logger

	now func() time.Time
}

func (s *DefaultBookingService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *DefaultBookingService) location() *time.Location {
	if s.Settings.Location != nil {
		return s.Settings.Location
	}
	return time.UTC
}

func (s *DefaultBookingService) publish(ctx context.Context, name, key string, data map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, name, key, data); err != nil {
		s.Logger.Warn("Failed to publish event", zap.String("event", name), zap.String("key", key), zap.Error(err))
	}
}
