package snackshopRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merritt/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoSnackshopRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Product
	if err := r.products.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("error fetching product %s: %w", id, err)
	}
	p.InStock = p.Available()
	return &p, nil
}

// ListProducts returns active products, optionally narrowed by category and stock.
func (r *mongoSnackshopRepo) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := bson.M{"is_active": true}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.InStock != nil {
		if *filter.InStock {
			query["stock_quantity"] = bson.M{"$gt": 0}
		} else {
			query["stock_quantity"] = bson.M{"$lte": 0}
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.products.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("error decoding products: %w", err)
	}
	for i := range products {
		products[i].InStock = products[i].Available()
	}
	return products, nil
}
