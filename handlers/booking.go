package handlers

import (
	"net/http"

	"merritt/models"
	"merritt/services/booking"
	"merritt/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the meeting room workflow.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// GetAvailabilityHandler handles GET /api/availability?date=&room_id=
func (h *BookingHandler) GetAvailabilityHandler(c *gin.Context) {
	av, err := h.Service.GetAvailability(c.Request.Context(), c.Query("room_id"), c.Query("date"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"room_id":          av.RoomID,
		"room_name":        av.RoomName,
		"date":             av.Date,
		"time_slots":       av.TimeSlots,
		"booked_times":     av.BookedTimes,
		"total_slots":      av.TotalSlots,
		"available_slots":  av.AvailableSlots,
		"degraded_sources": av.DegradedSources,
	})
}

// CreateBookingHandler handles POST /api/bookings for both member and paid bookings.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.Service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if res.Member != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"booking": res.Member,
			"message": "Booking confirmed! Your member hours have been applied.",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"booking": res.Paid,
		"message": "Booking created. Proceed to payment to confirm it.",
	})
}

// ListBookingsHandler handles GET /api/bookings?email=&date=
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	filter := models.BookingFilter{Email: c.Query("email"), Date: c.Query("date")}
	bookings, err := h.Service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

// ConfirmBookingHandler handles POST /api/bookings/:id/confirm
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	var req booking.ConfirmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}
	b, err := h.Service.ConfirmBooking(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.Logger.Info("Booking confirmed manually", zap.String("bookingID", b.ID), zap.String("admin", c.GetString("adminEmail")))
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// CancelBookingHandler handles DELETE /api/bookings/:id/confirm
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}
	reason := body.Reason
	if reason == "" {
		reason = c.Query("reason")
	}
	b, err := h.Service.CancelBooking(c.Request.Context(), c.Param("id"), reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// CreateMeetingCheckoutHandler handles POST /api/create-meeting-checkout
func (h *BookingHandler) CreateMeetingCheckoutHandler(c *gin.Context) {
	var body struct {
		BookingID string `json:"booking_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	session, err := h.Service.CreateMeetingCheckout(c.Request.Context(), body.BookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "url": session.URL})
}
