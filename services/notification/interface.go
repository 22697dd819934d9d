package notification

import (
	"context"
	"errors"
	"fmt"

	"merritt/models"

	"go.uber.org/zap"
)

// NotificationService sends transactional messages to customers and to the workspace manager.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, b models.BookingVariant) error
	SendBookingCancellation(ctx context.Context, b *models.Booking) error
	SendOrderConfirmation(ctx context.Context, o *models.Order) error
	SendPaymentReceipt(ctx context.Context, s *models.CheckoutSession) error
	AlertManager(ctx context.Context, subject, body string) error
}

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// Pusher delivers a push message to the managers' devices.
type Pusher interface {
	PushToManagers(ctx context.Context, title, body string, data map[string]string) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	mailer       Mailer
	pusher       Pusher
	managerEmail string
	logger       *zap.Logger
}

func NewDefaultNotificationService(mailer Mailer, pusher Pusher, managerEmail string, logger *zap.Logger) (*DefaultNotificationService, error) {
	if mailer == nil {
		return nil, fmt.Errorf("notification service initialization error: mailer is nil")
	}
	return &DefaultNotificationService{
		mailer:       mailer,
		pusher:       pusher,
		managerEmail: managerEmail,
		logger:       logger,
	}, nil
}

// deliver sends the customer copy and the manager copy independently, then pushes
// to the managers' devices. All failures are reported together.
func (s *DefaultNotificationService) deliver(ctx context.Context, customer string, m message) error {
	var errs []error
	if customer != "" {
		if err := s.mailer.Send(ctx, []string{customer}, m.subject, m.customerHTML); err != nil {
			errs = append(errs, fmt.Errorf("customer email: %w", err))
		}
	}
	if s.managerEmail != "" && m.managerHTML != "" {
		if err := s.mailer.Send(ctx, []string{s.managerEmail}, m.managerSubject, m.managerHTML); err != nil {
			errs = append(errs, fmt.Errorf("manager email: %w", err))
		}
	}
	if s.pusher != nil && m.pushTitle != "" {
		if err := s.pusher.PushToManagers(ctx, m.pushTitle, m.pushBody, m.pushData); err != nil {
			// Push is a convenience channel; email already carries the information.
			s.logger.Warn("Manager push failed", zap.Error(err))
		}
	}
	return errors.Join(errs...)
}
