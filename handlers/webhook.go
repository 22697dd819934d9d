package handlers

import (
	"io"
	"net/http"

	"merritt/services/webhook"
	"merritt/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBytes bounds the payload read before signature verification.
const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	Dispatcher *webhook.Dispatcher
	Success    *webhook.PaymentSuccess
}

func NewPaymentHandler(d *webhook.Dispatcher, s *webhook.PaymentSuccess) *PaymentHandler {
	return &PaymentHandler{Dispatcher: d, Success: s}
}

// HandleWebhook serves every gateway webhook endpoint. The raw body is needed
// for signature verification, so it is never bound.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Failed to read request body", err.Error())
		return
	}
	evt, err := h.Dispatcher.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Debug("Webhook acknowledged", zap.String("eventID", evt.ID), zap.String("type", evt.Type))
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// PaymentSuccessHandler handles GET /api/payment-success?session_id=
func (h *PaymentHandler) PaymentSuccessHandler(c *gin.Context) {
	details, err := h.Success.Confirm(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": details})
}
