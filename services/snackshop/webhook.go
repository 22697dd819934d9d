package snackshop

import (
	"context"
	"fmt"

	"merritt/models"
	"merritt/services/events"
	"merritt/utils"

	"go.uber.org/zap"
)

// HandlePaymentEvent settles a card order from a gateway event.
func (s *DefaultSnackshopService) HandlePaymentEvent(ctx context.Context, evt *models.PaymentEvent) error {
	switch evt.Type {
	case models.EventCheckoutCompleted, models.EventPaymentSucceeded:
		return s.markPaid(ctx, evt)
	case models.EventCheckoutExpired:
		return s.cancel(ctx, evt, models.PaymentStatusExpired)
	case models.EventPaymentFailed:
		return s.cancel(ctx, evt, models.PaymentStatusFailed)
	default:
		s.Logger.Debug("Ignoring payment event", zap.String("type", evt.Type), zap.String("eventID", evt.ID))
		return nil
	}
}

func (s *DefaultSnackshopService) markPaid(ctx context.Context, evt *models.PaymentEvent) error {
	order, err := s.orderForEvent(ctx, evt)
	if err != nil {
		return err
	}
	changed, err := s.Repo.TransitionOrder(ctx, order.ID,
		[]string{models.OrderStatusPendingPayment}, models.OrderStatusPaid, models.PaymentStatusPaid)
	if err != nil {
		return fmt.Errorf("mark order %s paid: %w", order.ID, err)
	}
	if changed {
		order.Status = models.OrderStatusPaid
		order.PaymentStatus = models.PaymentStatusPaid
		s.Logger.Info("Snackshop order paid", zap.String("orderID", order.ID), zap.String("orderNumber", order.OrderNumber))
		s.sendConfirmation(ctx, order)
		s.publish(ctx, events.OrderPaid, order.ID, map[string]any{"order_number": order.OrderNumber})
		return nil
	}

	if order.Status != models.OrderStatusCancelled || order.PaymentStatus == models.PaymentStatusPaid {
		return nil
	}
	// Paid after the order was cancelled and restocked; keep it cancelled.
	if _, err := s.Repo.TransitionOrder(ctx, order.ID,
		[]string{models.OrderStatusCancelled}, models.OrderStatusCancelled, models.PaymentStatusPaid); err != nil {
		return fmt.Errorf("record payment for order %s: %w", order.ID, err)
	}
	s.Logger.Warn("Payment received for cancelled order", zap.String("orderID", order.ID))
	if s.Notifier != nil {
		body := fmt.Sprintf("Order %s for %s <%s> was cancelled before its payment completed. Refund or fulfil manually.",
			order.OrderNumber, order.CustomerName, order.CustomerEmail)
		if err := s.Notifier.AlertManager(ctx, "Payment received for a cancelled order", body); err != nil {
			s.Logger.Error("Failed to alert manager", zap.String("orderID", order.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *DefaultSnackshopService) cancel(ctx context.Context, evt *models.PaymentEvent, paymentStatus string) error {
	order, err := s.orderForEvent(ctx, evt)
	if err != nil {
		return err
	}
	cancelled, movements, err := s.Repo.CancelAndRestock(ctx, order.ID, paymentStatus)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", order.ID, err)
	}
	if !cancelled {
		return nil
	}
	s.Logger.Info("Snackshop order cancelled and restocked",
		zap.String("orderID", order.ID),
		zap.String("paymentStatus", paymentStatus),
		zap.Int("stockMovements", len(movements)))
	s.publish(ctx, events.OrderCancelled, order.ID, map[string]any{"payment_status": paymentStatus})
	return nil
}

func (s *DefaultSnackshopService) orderForEvent(ctx context.Context, evt *models.PaymentEvent) (*models.Order, error) {
	id := evt.Metadata["order_id"]
	if id == "" {
		return nil, utils.NotFound("Order not found").WithDetails("event carries no order reference")
	}
	return s.GetOrder(ctx, id)
}
