// database/repository/blocked/blocked.go
package blockedRepo

import (
	"context"
	"fmt"
	"time"

	"merritt/database"
	"merritt/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BlockedRepository defines methods to interact with blocked intervals.
type BlockedRepository interface {
	GetByRoomAndDate(ctx context.Context, roomID, date string) ([]models.BlockedTime, error)
}

type mongoBlockedRepo struct {
	coll *mongo.Collection
}

func NewMongoBlockedRepo() BlockedRepository {
	return &mongoBlockedRepo{coll: database.DB().Collection("blocked_times")}
}

// GetByRoomAndDate retrieves all blocked intervals for a given room and date.
func (r *mongoBlockedRepo) GetByRoomAndDate(ctx context.Context, roomID, date string) ([]models.BlockedTime, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"room_id": roomID, "date": date})
	if err != nil {
		return nil, fmt.Errorf("error fetching blocked intervals: %w", err)
	}
	defer cursor.Close(ctx)

	var blocked []models.BlockedTime
	for cursor.Next(ctx) {
		var b models.BlockedTime
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding blocked interval: %w", err)
		}
		blocked = append(blocked, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return blocked, nil
}
