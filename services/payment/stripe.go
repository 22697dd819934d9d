package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"merritt/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeGateway sets the global Stripe key and returns a gateway.
func NewStripeGateway(secretKey, webhookSecret string, logger *zap.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret, logger: logger}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.ExpiresInMin > 0 {
		params.ExpiresAt = stripe.Int64(time.Now().Add(time.Duration(req.ExpiresInMin) * time.Minute).Unix())
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	for _, li := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session failed: %w", err)
	}
	g.logger.Info("Checkout session created", zap.String("sessionId", s.ID))
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session %s failed: %w", sessionID, err)
	}
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &models.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case models.EventCheckoutCompleted, models.EventCheckoutExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		cs := toCheckoutSession(&s)
		out.SessionID = cs.ID
		out.PaymentIntentID = cs.PaymentIntentID
		out.PaymentStatus = cs.PaymentStatus
		out.AmountTotal = cs.AmountTotal
		out.CustomerEmail = cs.CustomerEmail
		out.Metadata = cs.Metadata
	case models.EventPaymentSucceeded, models.EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.PaymentStatus = string(pi.Status)
		out.AmountTotal = pi.Amount
		out.Metadata = pi.Metadata
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}
	}
	return out, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *models.CheckoutSession {
	cs := &models.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		ExpiresAt:     s.ExpiresAt,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		cs.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.CustomerDetails != nil {
		if s.CustomerDetails.Email != "" {
			cs.CustomerEmail = s.CustomerDetails.Email
		}
		cs.CustomerName = s.CustomerDetails.Name
	}
	return cs
}
