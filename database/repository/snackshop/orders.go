package snackshopRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merritt/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *mongoSnackshopRepo) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var order models.Order
	if err := r.orders.FindOne(ctx, bson.M{"id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("error fetching order %s: %w", id, err)
	}

	cursor, err := r.orderItems.Find(ctx, bson.M{"order_id": id})
	if err != nil {
		return nil, fmt.Errorf("error fetching items of order %s: %w", id, err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &order.Items); err != nil {
		return nil, fmt.Errorf("error decoding items of order %s: %w", id, err)
	}
	return &order, nil
}

func (r *mongoSnackshopRepo) SetCheckoutSession(ctx context.Context, orderID, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"stripe_session_id": sessionID, "updated_at": time.Now()}}
	res, err := r.orders.UpdateOne(ctx, bson.M{"id": orderID}, update)
	if err != nil {
		return fmt.Errorf("error updating order %s: %w", orderID, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *mongoSnackshopRepo) TransitionOrder(ctx context.Context, id string, from []string, status, paymentStatus string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	if len(from) > 0 {
		filter["status"] = bson.M{"$in": from}
	}
	set := bson.M{"status": status, "updated_at": time.Now()}
	if paymentStatus != "" {
		set["payment_status"] = paymentStatus
	}
	res, err := r.orders.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("error updating order %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}
