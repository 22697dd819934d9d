// FILE: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes on the bookings and slot claim collections.
func EnsureIndexes(repo BookingRepository) error {
	r, ok := repo.(*mongoBookingRepo)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "booking_date", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("room_date_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "customer_email", Value: 1}},
			Options: options.Index().SetName("customer_email_idx"),
		},
		{
			Keys:    bson.D{{Key: "stripe_payment_intent_id", Value: 1}},
			Options: options.Index().SetName("payment_intent_idx").SetSparse(true),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	claimIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "date", Value: 1}, {Key: "hour", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_room_date_hour"),
		},
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetName("booking_id_idx"),
		},
	}
	if _, err := r.claimColl.Indexes().CreateMany(ctx, claimIndexes); err != nil {
		return fmt.Errorf("failed to create slot claim indexes: %w", err)
	}
	return nil
}
