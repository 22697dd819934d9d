// File: database/repository/snackshop/interface.go
package snackshopRepo

import (
	"context"
	"errors"
	"fmt"

	"merritt/database"
	"merritt/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// InsufficientStockError names the product whose conditional decrement failed.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

type SnackshopRepository interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	// PlaceOrder inserts the order and its items and decrements stock, all or nothing.
	// One stock movement is recorded per item.
	PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) ([]models.StockMovement, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SetCheckoutSession(ctx context.Context, orderID, sessionID string) error
	// TransitionOrder applies the new status only if the current status is one of from.
	TransitionOrder(ctx context.Context, id string, from []string, status, paymentStatus string) (bool, error)
	// CancelAndRestock cancels a pending order and puts its items back in stock.
	CancelAndRestock(ctx context.Context, orderID, paymentStatus string) (bool, []models.StockMovement, error)
}

type mongoSnackshopRepo struct {
	client      *mongo.Client
	products    *mongo.Collection
	orders      *mongo.Collection
	orderItems  *mongo.Collection
	stockLedger *mongo.Collection
}

// NewMongoSnackshopRepo constructs a new MongoDB SnackshopRepository.
func NewMongoSnackshopRepo() SnackshopRepository {
	db := database.DB()
	return &mongoSnackshopRepo{
		client:      database.MongoClient,
		products:    db.Collection("products"),
		orders:      db.Collection("orders"),
		orderItems:  db.Collection("order_items"),
		stockLedger: db.Collection("stock_movements"),
	}
}
