package models

import "time"

// Order statuses.
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusPreparing      = "preparing"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// Payment methods accepted by the snackshop.
const (
	PaymentMethodCard          = "card"
	PaymentMethodAccountCredit = "account_credit"
)

// Order is a snackshop order.
type Order struct {
	ID              string      `bson:"id" json:"id"`
	OrderNumber     string      `bson:"order_number" json:"order_number"`
	CustomerName    string      `bson:"customer_name" json:"customer_name"`
	CustomerEmail   string      `bson:"customer_email" json:"customer_email"`
	CustomerPhone   string      `bson:"customer_phone,omitempty" json:"customer_phone,omitempty"`
	CompanyName     string      `bson:"company_name,omitempty" json:"company_name,omitempty"`
	OfficeLocation  string      `bson:"office_location" json:"office_location"`
	DeskNumber      string      `bson:"desk_number,omitempty" json:"desk_number,omitempty"`
	Notes           string      `bson:"notes,omitempty" json:"notes,omitempty"`
	TotalAmount     float64     `bson:"total_amount" json:"total_amount"`
	PaymentMethod   string      `bson:"payment_method" json:"payment_method"`
	PaymentStatus   string      `bson:"payment_status" json:"payment_status"`
	Status          string      `bson:"status" json:"status"`
	StripeSessionID string      `bson:"stripe_session_id,omitempty" json:"stripe_session_id,omitempty"`
	Items           []OrderItem `bson:"-" json:"items,omitempty"`
	CreatedAt       time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `bson:"updated_at" json:"updated_at"`
}

// OrderItem is an immutable order line.
type OrderItem struct {
	ID          string  `bson:"id" json:"id"`
	OrderID     string  `bson:"order_id" json:"order_id"`
	ProductID   string  `bson:"product_id" json:"product_id"`
	ProductName string  `bson:"product_name" json:"product_name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price"`
	TotalPrice  float64 `bson:"total_price" json:"total_price"`
}

// CartLine is one requested product in an order request.
type CartLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// OrderRequest is the body of POST /api/snackshop.
type OrderRequest struct {
	CustomerName   string     `json:"customer_name" validate:"required"`
	CustomerEmail  string     `json:"customer_email" validate:"required,email"`
	CustomerPhone  string     `json:"customer_phone"`
	CompanyName    string     `json:"company_name"`
	OfficeLocation string     `json:"office_location" validate:"required"`
	DeskNumber     string     `json:"desk_number"`
	Notes          string     `json:"notes"`
	PaymentMethod  string     `json:"payment_method" validate:"required,oneof=card account_credit"`
	Items          []CartLine `json:"items" validate:"required,min=1,dive"`
}

// OrderResult is the outcome of placing an order.
type OrderResult struct {
	Order       *Order `json:"order"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}
