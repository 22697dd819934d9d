package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merritt/database"
	"merritt/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// slotClaim reserves one hour of one room. The unique index on
// (room_id, date, hour) is what stops two active bookings from overlapping.
type slotClaim struct {
	RoomID    string    `bson:"room_id"`
	Date      string    `bson:"date"`
	Hour      string    `bson:"hour"`
	BookingID string    `bson:"booking_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Create inserts the booking and its hour claims in one transaction.
func (r *mongoBookingRepo) Create(ctx context.Context, booking *models.Booking, hours []string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		if len(hours) == 0 {
			return nil
		}
		claims := make([]interface{}, 0, len(hours))
		for _, h := range hours {
			claims = append(claims, slotClaim{
				RoomID:    booking.RoomID,
				Date:      booking.BookingDate,
				Hour:      h,
				BookingID: booking.ID,
				CreatedAt: booking.CreatedAt,
			})
		}
		if _, err := r.claimColl.InsertMany(sc, claims); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("insert slot claims failed: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrSlotTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	return nil
}

// Transition is a compare-and-set on the booking status.
func (r *mongoBookingRepo) Transition(ctx context.Context, id string, from []string, upd models.StatusUpdate) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{"updated_at": now}
	if upd.Status != "" {
		set["status"] = upd.Status
	}
	if upd.PaymentStatus != "" {
		set["payment_status"] = upd.PaymentStatus
	}
	if upd.StripeSessionID != "" {
		set["stripe_session_id"] = upd.StripeSessionID
	}
	if upd.StripePaymentIntentID != "" {
		set["stripe_payment_intent_id"] = upd.StripePaymentIntentID
	}
	if upd.CancellationReason != "" {
		set["cancellation_reason"] = upd.CancellationReason
	}
	switch upd.Status {
	case models.BookingStatusConfirmed:
		set["confirmed_at"] = now
	case models.BookingStatusCancelled:
		set["cancelled_at"] = now
	}

	filter := bson.M{"id": id}
	if len(from) > 0 {
		filter["status"] = bson.M{"$in": from}
	}
	if upd.UnlessPaymentStatus != "" {
		filter["payment_status"] = bson.M{"$ne": upd.UnlessPaymentStatus}
	}

	var modified bool
	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc, filter, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("update booking %s failed: %w", id, err)
		}
		modified = res.ModifiedCount == 1
		if modified && upd.Status == models.BookingStatusCancelled {
			if _, err := r.claimColl.DeleteMany(sc, bson.M{"booking_id": id}); err != nil {
				return fmt.Errorf("release slot claims failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("booking transition failed: %w", err)
	}
	return modified, nil
}
