package webhook

import (
	"context"
	"fmt"
	"strings"

	"merritt/models"
	"merritt/services/notification"
	"merritt/services/payment"
	"merritt/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentSuccess backs the page customers land on after checkout. It settles the
// purchase the same way the webhook would, in case the page wins the race, and
// sends the receipt once per session.
type PaymentSuccess struct {
	gateway    payment.Gateway
	dispatcher *Dispatcher
	notifier   notification.NotificationService
	guard      utils.OnceGuard
	logger     *zap.Logger
}

func NewPaymentSuccess(gateway payment.Gateway, dispatcher *Dispatcher, notifier notification.NotificationService, guard utils.OnceGuard, logger *zap.Logger) *PaymentSuccess {
	return &PaymentSuccess{gateway: gateway, dispatcher: dispatcher, notifier: notifier, guard: guard, logger: logger}
}

func (p *PaymentSuccess) Confirm(ctx context.Context, sessionID string) (*models.PaymentDetails, error) {
	if sessionID == "" {
		return nil, utils.MissingField("session_id")
	}
	session, err := p.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, utils.Internal("Failed to retrieve checkout session", err)
	}

	details := detailsFromSession(session)
	if !session.Paid() {
		return nil, utils.BadRequest("Payment not completed").
			WithDetails(fmt.Sprintf("session %s payment_status=%s", session.ID, session.PaymentStatus))
	}

	evt := &models.PaymentEvent{
		Type:            models.EventCheckoutCompleted,
		SessionID:       session.ID,
		PaymentIntentID: session.PaymentIntentID,
		PaymentStatus:   session.PaymentStatus,
		AmountTotal:     session.AmountTotal,
		CustomerEmail:   session.CustomerEmail,
		Metadata:        session.Metadata,
	}
	if err := p.dispatcher.Dispatch(ctx, evt); err != nil {
		// The webhook will settle it; the customer still gets their receipt.
		p.logger.Error("Settlement from success page failed", zap.String("sessionID", session.ID), zap.Error(err))
	}

	details.ReceiptSent = p.sendReceiptOnce(ctx, session)
	return details, nil
}

func (p *PaymentSuccess) sendReceiptOnce(ctx context.Context, session *models.CheckoutSession) bool {
	key := "receipt:" + session.ID
	if p.guard != nil {
		claimed, err := p.guard.Claim(ctx, key)
		if err != nil {
			p.logger.Warn("Receipt guard unavailable, skipping receipt", zap.String("sessionID", session.ID), zap.Error(err))
			return false
		}
		if !claimed {
			return false
		}
	}
	if err := p.notifier.SendPaymentReceipt(ctx, session); err != nil {
		p.logger.Error("Failed to send payment receipt", zap.String("sessionID", session.ID), zap.Error(err))
		if p.guard != nil {
			if rerr := p.guard.Release(ctx, key); rerr != nil {
				p.logger.Warn("Failed to release receipt guard", zap.String("sessionID", session.ID), zap.Error(rerr))
			}
		}
		return false
	}
	return true
}

func detailsFromSession(s *models.CheckoutSession) *models.PaymentDetails {
	evt := models.PaymentEvent{Metadata: s.Metadata}
	kind := bookingType(&evt)
	ref := s.Metadata["booking_id"]
	if kind == models.BookingTypeSnackshop {
		ref = s.Metadata["order_number"]
		if ref == "" {
			ref = s.Metadata["order_id"]
		}
	}
	email := s.CustomerEmail
	if email == "" {
		email = s.Metadata["customer_email"]
	}
	name := s.CustomerName
	if name == "" {
		name = s.Metadata["customer_name"]
	}
	status := s.PaymentStatus
	if status == "" {
		status = "unpaid"
	}
	return &models.PaymentDetails{
		SessionID:     s.ID,
		BookingType:   kind,
		Reference:     ref,
		CustomerName:  name,
		CustomerEmail: email,
		Amount:        decimal.New(s.AmountTotal, -2).InexactFloat64(),
		Currency:      strings.ToUpper(s.Currency),
		PaymentStatus: status,
	}
}
