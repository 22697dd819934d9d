package snackshop

import (
	"context"
	"time"

	snackshopRepo "merritt/database/repository/snackshop"
	"merritt/models"
	"merritt/services/events"
	"merritt/services/notification"
	"merritt/services/payment"

	"go.uber.org/zap"
)

// SnackshopService sells snacks to desks: catalogue, orders with stock control and
// settlement of card payments.
type SnackshopService interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	HandlePaymentEvent(ctx context.Context, evt *models.PaymentEvent) error
}

// Settings configures checkout for card orders.
type Settings struct {
	Currency          string
	CheckoutExpiryMin int
	SiteURL           string
}

// DefaultSnackshopService implements SnackshopService.
type DefaultSnackshopService struct {
	Repo     snackshopRepo.SnackshopRepository
	Gateway  payment.Gateway
	Notifier notification.NotificationService
	Events   events.Publisher
	Settings Settings
	Logger   *zap.Logger

	now func() time.Time
}

func (s *DefaultSnackshopService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *DefaultSnackshopService) publish(ctx context.Context, name, key string, data map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, name, key, data); err != nil {
		s.Logger.Warn("Failed to publish event", zap.String("event", name), zap.String("key", key), zap.Error(err))
	}
}
