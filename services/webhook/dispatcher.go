package webhook

import (
	"context"
	"net/http"

	"merritt/models"
	"merritt/services/payment"
	"merritt/utils"

	"go.uber.org/zap"
)

// Handler applies a verified payment event to one kind of purchase.
type Handler interface {
	HandlePaymentEvent(ctx context.Context, evt *models.PaymentEvent) error
}

// Dispatcher verifies gateway webhooks and routes them on the booking_type
// metadata. Every webhook endpoint goes through the same Dispatcher.
type Dispatcher struct {
	gateway  payment.Gateway
	handlers map[string]Handler
	guard    utils.OnceGuard
	logger   *zap.Logger
}

// NewDispatcher builds a Dispatcher. guard may be nil, in which case duplicate
// deliveries are left to the handlers' own state checks.
func NewDispatcher(gateway payment.Gateway, handlers map[string]Handler, guard utils.OnceGuard, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{gateway: gateway, handlers: handlers, guard: guard, logger: logger}
}

// Handle verifies the payload signature and dispatches the event. A bad signature
// is a 400 and changes nothing.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, signature string) (*models.PaymentEvent, error) {
	if signature == "" {
		return nil, utils.BadRequest("Missing Stripe-Signature header")
	}
	evt, err := d.gateway.ParseWebhook(payload, signature)
	if err != nil {
		d.logger.Warn("Rejected webhook", zap.Error(err))
		return nil, &utils.AppError{Status: http.StatusBadRequest, Message: "Webhook signature verification failed", Err: err}
	}
	return evt, d.Dispatch(ctx, evt)
}

// Dispatch routes an already verified event. Events for unknown purchases are
// acknowledged so the gateway stops retrying them.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *models.PaymentEvent) error {
	kind := bookingType(evt)
	handler, ok := d.handlers[kind]
	if !ok {
		d.logger.Info("Webhook event not routed", zap.String("eventID", evt.ID), zap.String("type", evt.Type), zap.String("bookingType", kind))
		return nil
	}

	guarded := false
	if d.guard != nil && evt.ID != "" {
		claimed, err := d.guard.Claim(ctx, "webhook:"+evt.ID)
		switch {
		case err != nil:
			d.logger.Warn("Webhook dedup unavailable", zap.String("eventID", evt.ID), zap.Error(err))
		case !claimed:
			d.logger.Info("Duplicate webhook delivery skipped", zap.String("eventID", evt.ID), zap.String("type", evt.Type))
			return nil
		default:
			guarded = true
		}
	}

	err := handler.HandlePaymentEvent(ctx, evt)
	if err == nil {
		d.logger.Info("Webhook processed", zap.String("eventID", evt.ID), zap.String("type", evt.Type), zap.String("bookingType", kind))
		return nil
	}
	if utils.StatusOf(err) == http.StatusNotFound {
		d.logger.Warn("Webhook references unknown record", zap.String("eventID", evt.ID), zap.String("type", evt.Type), zap.Error(err))
		return nil
	}

	// Let the gateway's retry get through.
	if guarded {
		if rerr := d.guard.Release(ctx, "webhook:"+evt.ID); rerr != nil {
			d.logger.Warn("Failed to release webhook dedup key", zap.String("eventID", evt.ID), zap.Error(rerr))
		}
	}
	return err
}

// bookingType reads the discriminator, inferring it from the reference key for
// sessions created before it was set.
func bookingType(evt *models.PaymentEvent) string {
	if t := evt.BookingType(); t != "" {
		return t
	}
	switch {
	case evt.Metadata["booking_id"] != "":
		return models.BookingTypeMeetingRoom
	case evt.Metadata["order_id"] != "":
		return models.BookingTypeSnackshop
	}
	return ""
}
