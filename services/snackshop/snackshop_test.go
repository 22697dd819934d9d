package snackshop

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	snackshopRepo "merritt/database/repository/snackshop"
	"merritt/models"
	"merritt/services/events"
	"merritt/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepo keeps products and orders in memory. PlaceOrder checks every line
// before touching stock, the same all-or-nothing contract as the Mongo transaction.
type fakeRepo struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	orders    map[string]*models.Order
	items     map[string][]models.OrderItem
	movements []models.StockMovement
	// steal is subtracted from a product's stock right before PlaceOrder runs.
	steal map[string]int
}

func newFakeRepo(products ...models.Product) *fakeRepo {
	r := &fakeRepo{
		products: map[string]*models.Product{},
		orders:   map[string]*models.Order{},
		items:    map[string][]models.OrderItem{},
		steal:    map[string]int{},
	}
	for i := range products {
		p := products[i]
		r.products[p.ID] = &p
	}
	return r
}

func (r *fakeRepo) GetProduct(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, snackshopRepo.ErrProductNotFound
	}
	cp := *p
	cp.InStock = cp.Available()
	return &cp, nil
}

func (r *fakeRepo) ListProducts(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.InStock != nil && p.Available() != *filter.InStock {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeRepo) PlaceOrder(_ context.Context, order *models.Order, items []models.OrderItem) ([]models.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.steal {
		r.products[id].StockQuantity -= n
	}
	for _, it := range items {
		p := r.products[it.ProductID]
		if p == nil || !p.IsActive || p.StockQuantity < it.Quantity {
			return nil, &snackshopRepo.InsufficientStockError{ProductID: it.ProductID}
		}
	}
	var out []models.StockMovement
	for _, it := range items {
		p := r.products[it.ProductID]
		out = append(out, models.StockMovement{
			ProductID: p.ID, OrderID: order.ID, QuantityChange: -it.Quantity,
			PreviousQuantity: p.StockQuantity, NewQuantity: p.StockQuantity - it.Quantity,
			Reason: models.StockReasonOrderPlaced,
		})
		p.StockQuantity -= it.Quantity
	}
	cp := *order
	r.orders[order.ID] = &cp
	r.items[order.ID] = items
	r.movements = append(r.movements, out...)
	return out, nil
}

func (r *fakeRepo) GetOrder(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, snackshopRepo.ErrOrderNotFound
	}
	cp := *o
	cp.Items = r.items[id]
	return &cp, nil
}

func (r *fakeRepo) SetCheckoutSession(_ context.Context, id, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[id].StripeSessionID = sessionID
	return nil
}

func (r *fakeRepo) TransitionOrder(_ context.Context, id string, from []string, status, paymentStatus string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	match := len(from) == 0
	for _, f := range from {
		if o.Status == f {
			match = true
		}
	}
	if !match {
		return false, nil
	}
	o.Status = status
	if paymentStatus != "" {
		o.PaymentStatus = paymentStatus
	}
	return true, nil
}

func (r *fakeRepo) CancelAndRestock(_ context.Context, id, paymentStatus string) (bool, []models.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != models.OrderStatusPendingPayment {
		return false, nil, nil
	}
	o.Status = models.OrderStatusCancelled
	o.PaymentStatus = paymentStatus
	var out []models.StockMovement
	for _, it := range r.items[id] {
		p := r.products[it.ProductID]
		out = append(out, models.StockMovement{
			ProductID: p.ID, OrderID: id, QuantityChange: it.Quantity,
			PreviousQuantity: p.StockQuantity, NewQuantity: p.StockQuantity + it.Quantity,
			Reason: models.StockReasonOrderCancelled,
		})
		p.StockQuantity += it.Quantity
	}
	r.movements = append(r.movements, out...)
	return true, out, nil
}

func (r *fakeRepo) stock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].StockQuantity
}

type fakeGateway struct {
	requests []models.CheckoutRequest
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &models.CheckoutSession{ID: "cs_snack", URL: "https://checkout.example/cs_snack"}, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*models.CheckoutSession, error) {
	return &models.CheckoutSession{ID: id}, nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*models.PaymentEvent, error) {
	return nil, errors.New("not used")
}

type fakeNotifier struct {
	orders []string
	alerts []string
}

func (n *fakeNotifier) SendBookingConfirmation(context.Context, models.BookingVariant) error { return nil }
func (n *fakeNotifier) SendBookingCancellation(context.Context, *models.Booking) error      { return nil }
func (n *fakeNotifier) SendPaymentReceipt(context.Context, *models.CheckoutSession) error   { return nil }

func (n *fakeNotifier) SendOrderConfirmation(_ context.Context, o *models.Order) error {
	n.orders = append(n.orders, o.ID)
	return nil
}

func (n *fakeNotifier) AlertManager(_ context.Context, subject, _ string) error {
	n.alerts = append(n.alerts, subject)
	return nil
}

func newService(repo *fakeRepo) (*DefaultSnackshopService, *fakeGateway, *fakeNotifier) {
	gw := &fakeGateway{}
	nt := &fakeNotifier{}
	return &DefaultSnackshopService{
		Repo:     repo,
		Gateway:  gw,
		Notifier: nt,
		Events:   events.NopPublisher{},
		Settings: Settings{Currency: "cad", CheckoutExpiryMin: 30, SiteURL: "https://merritt.example/"},
		Logger:   zap.NewNop(),
		now:      func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
	}, gw, nt
}

func catalogue() *fakeRepo {
	return newFakeRepo(
		models.Product{ID: "chips", Name: "Kettle Chips", Price: 2.5, Category: "snacks", StockQuantity: 10, IsActive: true},
		models.Product{ID: "cola", Name: "Cola", Price: 1.75, Category: "drinks", StockQuantity: 1, IsActive: true},
		models.Product{ID: "bar", Name: "Protein Bar", Price: 3.1, Category: "snacks", StockQuantity: 0, IsActive: true},
	)
}

func orderRequest(method string, lines ...models.CartLine) models.OrderRequest {
	return models.OrderRequest{
		CustomerName:   "Grace",
		CustomerEmail:  "grace@example.com",
		OfficeLocation: "Floor 2",
		DeskNumber:     "14B",
		PaymentMethod:  method,
		Items:          lines,
	}
}

func TestPlaceOrder_AccountCreditIsPaidImmediately(t *testing.T) {
	repo := catalogue()
	svc, gw, nt := newService(repo)

	res, err := svc.PlaceOrder(context.Background(), orderRequest(models.PaymentMethodAccountCredit,
		models.CartLine{ProductID: "chips", Quantity: 2},
		models.CartLine{ProductID: "cola", Quantity: 1},
		models.CartLine{ProductID: "chips", Quantity: 1},
	))
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, models.OrderStatusPaid, o.Status)
	assert.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, 9.25, o.TotalAmount)
	assert.Regexp(t, regexp.MustCompile(`^MW-20250601-[0-9A-F]{6}$`), o.OrderNumber)
	require.Len(t, o.Items, 2, "repeated products are merged")
	assert.Equal(t, 3, o.Items[0].Quantity)

	var sum float64
	for _, it := range o.Items {
		sum += it.TotalPrice
	}
	assert.InDelta(t, o.TotalAmount, sum, 0.0001)

	assert.Equal(t, 7, repo.stock("chips"))
	assert.Equal(t, 0, repo.stock("cola"))
	assert.Len(t, repo.movements, 2)
	assert.Empty(t, gw.requests)
	assert.Equal(t, []string{o.ID}, nt.orders)
	assert.Empty(t, res.CheckoutURL)
}

func TestPlaceOrder_CardOpensCheckout(t *testing.T) {
	repo := catalogue()
	svc, gw, nt := newService(repo)

	res, err := svc.PlaceOrder(context.Background(), orderRequest(models.PaymentMethodCard,
		models.CartLine{ProductID: "chips", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPendingPayment, res.Order.Status)
	assert.Equal(t, "cs_snack", res.SessionID)
	assert.Equal(t, "https://checkout.example/cs_snack", res.CheckoutURL)
	require.Len(t, gw.requests, 1)
	req := gw.requests[0]
	assert.Equal(t, models.BookingTypeSnackshop, req.Metadata["booking_type"])
	assert.Equal(t, res.Order.ID, req.Metadata["order_id"])
	assert.Equal(t, int64(250), req.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), req.LineItems[0].Quantity)
	assert.Equal(t, "https://merritt.example/merritt-workspace/snackshop?cancelled=true", req.CancelURL)
	assert.Empty(t, nt.orders, "card orders are confirmed once paid")
}

func TestPlaceOrder_InsufficientStockLeavesStockUntouched(t *testing.T) {
	repo := catalogue()
	svc, _, _ := newService(repo)

	_, err := svc.PlaceOrder(context.Background(), orderRequest(models.PaymentMethodAccountCredit,
		models.CartLine{ProductID: "chips", Quantity: 2},
		models.CartLine{ProductID: "cola", Quantity: 5},
	))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))
	assert.Contains(t, err.Error(), "Cola")

	assert.Equal(t, 10, repo.stock("chips"))
	assert.Equal(t, 1, repo.stock("cola"))
	assert.Empty(t, repo.orders)
	assert.Empty(t, repo.movements)
}

func TestPlaceOrder_StockTakenConcurrentlyAbortsWholeOrder(t *testing.T) {
	repo := catalogue()
	repo.steal["cola"] = 1
	svc, _, _ := newService(repo)

	_, err := svc.PlaceOrder(context.Background(), orderRequest(models.PaymentMethodAccountCredit,
		models.CartLine{ProductID: "chips", Quantity: 4},
		models.CartLine{ProductID: "cola", Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))
	assert.Equal(t, "Insufficient stock for Cola", err.Error())
	assert.Equal(t, 10, repo.stock("chips"))
	assert.Empty(t, repo.orders)
}

func TestPlaceOrder_Rejections(t *testing.T) {
	svc, _, _ := newService(catalogue())
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, orderRequest(models.PaymentMethodCard, models.CartLine{ProductID: "ghost", Quantity: 1}))
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
	assert.Equal(t, "Product not found: ghost", err.Error())

	_, err = svc.PlaceOrder(ctx, orderRequest(models.PaymentMethodCard, models.CartLine{ProductID: "bar", Quantity: 1}))
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))
	assert.Equal(t, "Product is out of stock: Protein Bar", err.Error())

	_, err = svc.PlaceOrder(ctx, orderRequest(models.PaymentMethodCard))
	assert.Equal(t, "Missing required field: items", err.Error())

	_, err = svc.PlaceOrder(ctx, orderRequest("cash", models.CartLine{ProductID: "chips", Quantity: 1}))
	assert.Equal(t, "Invalid value for field: payment_method", err.Error())

	req := orderRequest(models.PaymentMethodCard, models.CartLine{ProductID: "chips", Quantity: 1})
	req.OfficeLocation = ""
	_, err = svc.PlaceOrder(ctx, req)
	assert.Equal(t, "Missing required field: office_location", err.Error())
}

func TestPlaceOrder_CheckoutFailureRestocks(t *testing.T) {
	repo := catalogue()
	svc, gw, _ := newService(repo)
	gw.err = errors.New("stripe down")

	_, err := svc.PlaceOrder(context.Background(), orderRequest(models.PaymentMethodCard,
		models.CartLine{ProductID: "chips", Quantity: 3}))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, utils.StatusOf(err))
	assert.Equal(t, 10, repo.stock("chips"))
	for _, o := range repo.orders {
		assert.Equal(t, models.OrderStatusCancelled, o.Status)
	}
}

func placeCardOrder(t *testing.T, svc *DefaultSnackshopService) *models.Order {
	t.Helper()
	res, err := svc.PlaceOrder(context.Background(), orderRequest(models.PaymentMethodCard,
		models.CartLine{ProductID: "chips", Quantity: 4}))
	require.NoError(t, err)
	return res.Order
}

func snackEvent(typ, orderID string) *models.PaymentEvent {
	return &models.PaymentEvent{ID: "evt_" + typ, Type: typ, SessionID: "cs_snack",
		Metadata: map[string]string{"booking_type": models.BookingTypeSnackshop, "order_id": orderID}}
}

func TestHandlePaymentEvent_CompletedMarksPaidOnce(t *testing.T) {
	repo := catalogue()
	svc, _, nt := newService(repo)
	order := placeCardOrder(t, svc)

	require.NoError(t, svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventCheckoutCompleted, order.ID)))
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventCheckoutCompleted, order.ID)))

	stored, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Len(t, nt.orders, 1)
	assert.Equal(t, 6, repo.stock("chips"))
}

func TestHandlePaymentEvent_ExpiredRestocks(t *testing.T) {
	repo := catalogue()
	svc, _, _ := newService(repo)
	order := placeCardOrder(t, svc)
	require.Equal(t, 6, repo.stock("chips"))

	require.NoError(t, svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventCheckoutExpired, order.ID)))
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventCheckoutExpired, order.ID)))

	stored, _ := svc.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentStatusExpired, stored.PaymentStatus)
	assert.Equal(t, 10, repo.stock("chips"), "restocked exactly once")

	last := repo.movements[len(repo.movements)-1]
	assert.Equal(t, models.StockReasonOrderCancelled, last.Reason)
	assert.Equal(t, last.PreviousQuantity+last.QuantityChange, last.NewQuantity)
}

func TestHandlePaymentEvent_PaidAfterCancelAlertsManager(t *testing.T) {
	repo := catalogue()
	svc, _, nt := newService(repo)
	order := placeCardOrder(t, svc)

	require.NoError(t, svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventPaymentFailed, order.ID)))
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventCheckoutCompleted, order.ID)))
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventCheckoutCompleted, order.ID)))

	stored, _ := svc.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Len(t, nt.alerts, 1)
}

func TestHandlePaymentEvent_UnknownOrder(t *testing.T) {
	svc, _, _ := newService(catalogue())
	err := svc.HandlePaymentEvent(context.Background(), snackEvent(models.EventCheckoutCompleted, "nope"))
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}

func TestMergeLines(t *testing.T) {
	got := mergeLines([]models.CartLine{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 2}, {ProductID: "a", Quantity: 3}})
	assert.Equal(t, []models.CartLine{{ProductID: "a", Quantity: 4}, {ProductID: "b", Quantity: 2}}, got)
}
