package models

import "time"

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Payment statuses shared by bookings and orders.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
	PaymentStatusExpired  = "expired"
)

// BookingKind discriminates the two booking variants.
type BookingKind string

const (
	BookingKindMember BookingKind = "member"
	BookingKindPaid   BookingKind = "paid"
)

// BookingDetails is the descriptive payload shared by member and paid bookings.
type BookingDetails struct {
	RoomID        string  `bson:"room_id" json:"room_id"`
	RoomName      string  `bson:"room_name,omitempty" json:"room_name,omitempty"`
	CustomerName  string  `bson:"customer_name" json:"customer_name"`
	CustomerEmail string  `bson:"customer_email" json:"customer_email"`
	CustomerPhone string  `bson:"customer_phone,omitempty" json:"customer_phone,omitempty"`
	CompanyName   string  `bson:"company_name,omitempty" json:"company_name,omitempty"`
	BookingDate   string  `bson:"booking_date" json:"booking_date"` // "2025-06-01"
	StartTime     string  `bson:"start_time" json:"start_time"`     // "10:00"
	EndTime       string  `bson:"end_time" json:"end_time"`         // start_time + duration_hours, set once at creation
	DurationHours float64 `bson:"duration_hours" json:"duration_hours"`
	Attendees     int     `bson:"attendees" json:"attendees"`
	Purpose       string  `bson:"purpose,omitempty" json:"purpose,omitempty"`
}

// BookingVariant is implemented by both MemberBooking and Booking.
type BookingVariant interface {
	Kind() BookingKind
	BookingID() string
	Info() BookingDetails
	Amount() float64
}

// Booking is a paid booking. It is persisted and moves pending -> confirmed|cancelled
// through the payment webhook state machine.
type Booking struct {
	ID             string `bson:"id" json:"id"`
	BookingDetails `bson:",inline"`

	TotalAmount           float64    `bson:"total_amount" json:"total_amount"`
	Status                string     `bson:"status" json:"status"`
	PaymentStatus         string     `bson:"payment_status" json:"payment_status"`
	StripeSessionID       string     `bson:"stripe_session_id,omitempty" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID string     `bson:"stripe_payment_intent_id,omitempty" json:"stripe_payment_intent_id,omitempty"`
	ConfirmationSent      bool       `bson:"confirmation_sent" json:"confirmation_sent"`
	CalendarEventID       *string    `bson:"calendar_event_id" json:"calendar_event_id"`
	CancellationReason    string     `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `bson:"updated_at" json:"updated_at"`
	ConfirmedAt           *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	CancelledAt           *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

func (b *Booking) Kind() BookingKind { return BookingKindPaid }
func (b *Booking) BookingID() string { return b.ID }
func (b *Booking) Info() BookingDetails { return b.BookingDetails }
func (b *Booking) Amount() float64 { return b.TotalAmount }
func (b *Booking) HasCalendarEvent() bool { return b.CalendarEventID != nil && *b.CalendarEventID != "" }

// HoldsSlot reports whether the booking still occupies its room time.
func (b *Booking) HoldsSlot() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// MemberBooking is a free booking drawn against a membership. It only ever exists
// as a calendar event and as email content.
type MemberBooking struct {
	ID             string `json:"id"`
	BookingDetails

	Status               string    `json:"status"`
	PaymentStatus        string    `json:"payment_status"`
	TotalAmount          float64   `json:"total_amount"`
	IsMemberBooking      bool      `json:"is_member_booking"`
	CalendarEventID      string    `json:"calendar_event_id,omitempty"`
	CalendarEventCreated bool      `json:"calendar_event_created"`
	CreatedAt            time.Time `json:"created_at"`
}

func (m *MemberBooking) Kind() BookingKind { return BookingKindMember }
func (m *MemberBooking) BookingID() string { return m.ID }
func (m *MemberBooking) Info() BookingDetails { return m.BookingDetails }
func (m *MemberBooking) Amount() float64 { return 0 }

// BookingRequest is the body of POST /api/bookings.
type BookingRequest struct {
	RoomID          string   `json:"room_id"`
	CustomerName    string   `json:"customer_name" validate:"required"`
	CustomerEmail   string   `json:"customer_email" validate:"required,email"`
	CustomerPhone   string   `json:"customer_phone"`
	CompanyName     string   `json:"company_name"`
	BookingDate     string   `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime       string   `json:"start_time" validate:"required,datetime=15:04"`
	DurationHours   float64  `json:"duration_hours" validate:"required,gt=0,lte=10"`
	Attendees       int      `json:"attendees" validate:"gte=0"`
	Purpose         string   `json:"purpose"`
	TotalAmount     *float64 `json:"total_amount"`
	IsMemberBooking bool     `json:"is_member_booking"`
}

// BookingResult is what CreateBooking hands back: exactly one of Member or Paid is set.
type BookingResult struct {
	Member *MemberBooking
	Paid   *Booking
}

// Variant returns whichever booking was created.
func (r BookingResult) Variant() BookingVariant {
	if r.Member != nil {
		return r.Member
	}
	return r.Paid
}

// BookingFilter selects persisted bookings for listing.
type BookingFilter struct {
	Email string
	Date  string
}

// StatusUpdate describes a compare-and-set transition on a booking.
type StatusUpdate struct {
	Status                string
	PaymentStatus         string
	StripeSessionID       string
	StripePaymentIntentID string
	CancellationReason    string
	// UnlessPaymentStatus skips the transition when payment_status already equals it.
	UnlessPaymentStatus string
}
