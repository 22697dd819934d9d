package snackshopRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merritt/database"
	"merritt/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlaceOrder writes the order, its items, the stock decrements and the ledger
// entries in one transaction. A failed conditional decrement aborts everything.
func (r *mongoSnackshopRepo) PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) ([]models.StockMovement, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var movements []models.StockMovement
	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		movements = movements[:0]
		if _, err := r.orders.InsertOne(sc, order); err != nil {
			return fmt.Errorf("insert order failed: %w", err)
		}

		docs := make([]interface{}, 0, len(items))
		for _, it := range items {
			docs = append(docs, it)
		}
		if _, err := r.orderItems.InsertMany(sc, docs); err != nil {
			return fmt.Errorf("insert order items failed: %w", err)
		}

		for _, it := range items {
			m, err := r.adjustStock(sc, it.ProductID, order.ID, -it.Quantity, models.StockReasonOrderPlaced,
				bson.M{"is_active": true, "stock_quantity": bson.M{"$gte": it.Quantity}})
			if err != nil {
				return err
			}
			movements = append(movements, *m)
		}
		return r.appendLedger(sc, movements)
	})
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, stockErr
		}
		return nil, fmt.Errorf("order transaction failed: %w", err)
	}
	return movements, nil
}

// CancelAndRestock cancels a pending_payment order and returns its items to stock.
func (r *mongoSnackshopRepo) CancelAndRestock(ctx context.Context, orderID, paymentStatus string) (bool, []models.StockMovement, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var (
		cancelled bool
		movements []models.StockMovement
	)
	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		cancelled = false
		movements = movements[:0]

		filter := bson.M{"id": orderID, "status": models.OrderStatusPendingPayment}
		set := bson.M{"status": models.OrderStatusCancelled, "payment_status": paymentStatus, "updated_at": time.Now()}
		res, err := r.orders.UpdateOne(sc, filter, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("cancel order failed: %w", err)
		}
		if res.ModifiedCount == 0 {
			return nil
		}
		cancelled = true

		cursor, err := r.orderItems.Find(sc, bson.M{"order_id": orderID})
		if err != nil {
			return fmt.Errorf("load order items failed: %w", err)
		}
		var items []models.OrderItem
		if err := cursor.All(sc, &items); err != nil {
			return fmt.Errorf("decode order items failed: %w", err)
		}

		for _, it := range items {
			m, err := r.adjustStock(sc, it.ProductID, orderID, it.Quantity, models.StockReasonOrderCancelled, nil)
			if err != nil {
				return err
			}
			movements = append(movements, *m)
		}
		return r.appendLedger(sc, movements)
	})
	if err != nil {
		return false, nil, fmt.Errorf("restock transaction failed: %w", err)
	}
	return cancelled, movements, nil
}

// adjustStock applies a signed change to a product and returns the matching ledger entry.
func (r *mongoSnackshopRepo) adjustStock(sc mongo.SessionContext, productID, orderID string, change int, reason string, cond bson.M) (*models.StockMovement, error) {
	filter := bson.M{"id": productID}
	for k, v := range cond {
		filter[k] = v
	}
	update := bson.M{
		"$inc": bson.M{"stock_quantity": change},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	if err := r.products.FindOneAndUpdate(sc, filter, update, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if change < 0 {
				return nil, &InsufficientStockError{ProductID: productID}
			}
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update stock of product %s failed: %w", productID, err)
	}

	return &models.StockMovement{
		ID:               uuid.New().String(),
		ProductID:        productID,
		OrderID:          orderID,
		QuantityChange:   change,
		PreviousQuantity: p.StockQuantity - change,
		NewQuantity:      p.StockQuantity,
		Reason:           reason,
		CreatedAt:        time.Now(),
	}, nil
}

func (r *mongoSnackshopRepo) appendLedger(sc mongo.SessionContext, movements []models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(movements))
	for _, m := range movements {
		docs = append(docs, m)
	}
	if _, err := r.stockLedger.InsertMany(sc, docs); err != nil {
		return fmt.Errorf("insert stock movements failed: %w", err)
	}
	return nil
}
