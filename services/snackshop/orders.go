package snackshop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	snackshopRepo "merritt/database/repository/snackshop"
	"merritt/models"
	"merritt/services/events"
	"merritt/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *DefaultSnackshopService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := s.Repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, utils.Internal("Failed to fetch products", err)
	}
	return products, nil
}

func (s *DefaultSnackshopService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, snackshopRepo.ErrOrderNotFound) {
			return nil, utils.NotFound("Order not found")
		}
		return nil, utils.Internal("Failed to load order", err)
	}
	return order, nil
}

// PlaceOrder checks every line against the catalogue, then writes the order and
// decrements stock in one step. Card orders also get a checkout page.
func (s *DefaultSnackshopService) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.clock()
	order := &models.Order{
		ID:             uuid.NewString(),
		OrderNumber:    orderNumber(now),
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerEmail:  strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone:  req.CustomerPhone,
		CompanyName:    req.CompanyName,
		OfficeLocation: req.OfficeLocation,
		DeskNumber:     req.DeskNumber,
		Notes:          req.Notes,
		PaymentMethod:  req.PaymentMethod,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	lines := mergeLines(req.Items)
	names := make(map[string]string, len(lines))
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		p, err := s.Repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, snackshopRepo.ErrProductNotFound) {
				return nil, utils.NotFound(fmt.Sprintf("Product not found: %s", line.ProductID))
			}
			return nil, utils.Internal("Failed to load product", err)
		}
		if !p.Available() {
			return nil, utils.Conflict(fmt.Sprintf("Product is out of stock: %s", p.Name)).
				WithDetails("product_id=" + p.ID)
		}
		if p.StockQuantity < line.Quantity {
			return nil, utils.Conflict(fmt.Sprintf("Insufficient stock for %s", p.Name)).
				WithDetails(fmt.Sprintf("product_id=%s requested=%d available=%d", p.ID, line.Quantity, p.StockQuantity))
		}

		unit := decimal.NewFromFloat(p.Price).Round(2)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		names[p.ID] = p.Name
		items = append(items, models.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unit.InexactFloat64(),
			TotalPrice:  lineTotal.InexactFloat64(),
		})
	}
	order.TotalAmount = total.InexactFloat64()

	if req.PaymentMethod == models.PaymentMethodAccountCredit {
		order.Status = models.OrderStatusPaid
		order.PaymentStatus = models.PaymentStatusPaid
	} else {
		order.Status = models.OrderStatusPendingPayment
		order.PaymentStatus = models.PaymentStatusPending
	}

	movements, err := s.Repo.PlaceOrder(ctx, order, items)
	if err != nil {
		var stockErr *snackshopRepo.InsufficientStockError
		if errors.As(err, &stockErr) {
			name := names[stockErr.ProductID]
			if name == "" {
				name = stockErr.ProductID
			}
			return nil, utils.Conflict(fmt.Sprintf("Insufficient stock for %s", name)).
				WithDetails("product_id=" + stockErr.ProductID)
		}
		return nil, utils.Internal("Failed to place order", err)
	}
	order.Items = items

	s.Logger.Info("Snackshop order placed",
		zap.String("orderID", order.ID),
		zap.String("orderNumber", order.OrderNumber),
		zap.String("paymentMethod", order.PaymentMethod),
		zap.String("total", total.StringFixed(2)),
		zap.Int("stockMovements", len(movements)))
	s.publish(ctx, events.OrderPlaced, order.ID, map[string]any{
		"order_number":   order.OrderNumber,
		"total_amount":   total.StringFixed(2),
		"payment_method": order.PaymentMethod,
		"items":          len(items),
	})

	result := &models.OrderResult{Order: order}
	if order.PaymentMethod != models.PaymentMethodCard {
		s.sendConfirmation(ctx, order)
		return result, nil
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, s.checkoutRequest(order))
	if err != nil {
		if _, _, rerr := s.Repo.CancelAndRestock(ctx, order.ID, models.PaymentStatusFailed); rerr != nil {
			s.Logger.Error("Failed to restock after checkout error", zap.String("orderID", order.ID), zap.Error(rerr))
		}
		return nil, utils.Internal("Failed to create checkout session", err)
	}
	if err := s.Repo.SetCheckoutSession(ctx, order.ID, session.ID); err != nil {
		s.Logger.Error("Failed to store checkout session on order",
			zap.String("orderID", order.ID), zap.String("sessionID", session.ID), zap.Error(err))
	}
	order.StripeSessionID = session.ID
	result.CheckoutURL = session.URL
	result.SessionID = session.ID
	return result, nil
}

func (s *DefaultSnackshopService) checkoutRequest(order *models.Order) models.CheckoutRequest {
	lineItems := make([]models.CheckoutLineItem, 0, len(order.Items))
	for _, it := range order.Items {
		lineItems = append(lineItems, models.CheckoutLineItem{
			Name:       it.ProductName,
			UnitAmount: decimal.NewFromFloat(it.UnitPrice).Shift(2).Round(0).IntPart(),
			Quantity:   int64(it.Quantity),
		})
	}
	site := strings.TrimRight(s.Settings.SiteURL, "/")
	return models.CheckoutRequest{
		CustomerEmail: order.CustomerEmail,
		Currency:      s.Settings.Currency,
		LineItems:     lineItems,
		Metadata: map[string]string{
			"booking_type":   models.BookingTypeSnackshop,
			"order_id":       order.ID,
			"order_number":   order.OrderNumber,
			"customer_name":  order.CustomerName,
			"customer_email": order.CustomerEmail,
		},
		SuccessURL:   site + "/merritt-workspace/snackshop/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:    site + "/merritt-workspace/snackshop?cancelled=true",
		ExpiresInMin: s.Settings.CheckoutExpiryMin,
	}
}

func (s *DefaultSnackshopService) sendConfirmation(ctx context.Context, order *models.Order) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendOrderConfirmation(ctx, order); err != nil {
		s.Logger.Error("Failed to send order confirmation", zap.String("orderID", order.ID), zap.Error(err))
	}
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(lines []models.CartLine) []models.CartLine {
	idx := make(map[string]int, len(lines))
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

// orderNumber is the human-facing order reference, e.g. MW-20250601-3F9A1C.
func orderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("MW-%s-%s", t.Format("20060102"), suffix)
}
