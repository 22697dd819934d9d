package models

// Payment gateway event types the service reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentSucceeded  = "payment_intent.succeeded"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// Values of the booking_type metadata discriminator.
const (
	BookingTypeMeetingRoom = "meeting_room"
	BookingTypeSnackshop   = "snackshop"
)

// PaymentEvent is a verified webhook event, reduced to the fields the state machines need.
type PaymentEvent struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	SessionID       string            `json:"session_id,omitempty"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	PaymentStatus   string            `json:"payment_status,omitempty"`
	AmountTotal     int64             `json:"amount_total,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	FailureMessage  string            `json:"failure_message,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// BookingType returns the booking_type discriminator.
func (e PaymentEvent) BookingType() string {
	return e.Metadata["booking_type"]
}

// CheckoutRequest is what the payment gateway needs to open a hosted checkout page.
type CheckoutRequest struct {
	CustomerEmail string
	Currency      string
	LineItems     []CheckoutLineItem
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
	ExpiresInMin  int
}

// CheckoutLineItem is one priced line on a checkout page. Amounts are in cents.
type CheckoutLineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// CheckoutSession is the gateway-side view of a checkout.
type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url,omitempty"`
	Status          string            `json:"status,omitempty"`
	PaymentStatus   string            `json:"payment_status,omitempty"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	CustomerName    string            `json:"customer_name,omitempty"`
	ExpiresAt       int64             `json:"expires_at,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Paid reports whether the gateway considers the session settled.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required"
}

// PaymentDetails is the summary shown on the payment success page, rebuilt from
// checkout session metadata.
type PaymentDetails struct {
	SessionID     string  `json:"session_id"`
	BookingType   string  `json:"booking_type"`
	Reference     string  `json:"reference"`
	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerEmail string  `json:"customer_email,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentStatus string  `json:"payment_status"`
	ReceiptSent   bool    `json:"receipt_sent"`
}
