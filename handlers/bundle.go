package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Meeting room endpoints
	GetAvailability       gin.HandlerFunc
	CreateBooking         gin.HandlerFunc
	ListBookings          gin.HandlerFunc
	ConfirmBooking        gin.HandlerFunc
	CancelBooking         gin.HandlerFunc
	CreateMeetingCheckout gin.HandlerFunc

	// Payment endpoints
	HandleWebhook  gin.HandlerFunc
	PaymentSuccess gin.HandlerFunc

	// Snackshop endpoints
	ListProducts gin.HandlerFunc
	PlaceOrder   gin.HandlerFunc
	GetOrder     gin.HandlerFunc

	// Admin endpoints
	AdminLogin gin.HandlerFunc

	Health gin.HandlerFunc
}
