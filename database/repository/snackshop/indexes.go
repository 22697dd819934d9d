// FILE: database/repository/snackshop/indexes.go
package snackshopRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the snackshop indexes.
func EnsureIndexes(repo SnackshopRepository) error {
	r, ok := repo.(*mongoSnackshopRepo)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plan := map[*mongo.Collection][]mongo.IndexModel{
		r.products: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "is_active", Value: 1}}, Options: options.Index().SetName("category_active_idx")},
		},
		r.orders: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
			{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_order_number")},
		},
		r.orderItems: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetName("order_id_idx")},
		},
		r.stockLedger: {
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("product_created_idx")},
		},
	}
	for coll, models := range plan {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll.Name(), err)
		}
	}
	return nil
}
