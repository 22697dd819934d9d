package bookingRepo

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

// GetByID retrieves a booking by its ID.
func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// GetByPaymentIntent retrieves the booking a Stripe payment intent belongs to.
func (r *mongoBookingRepo) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"stripe_payment_intent_id": paymentIntentID})
}

func (r *mongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking: %w", err)
	}
	return &booking, nil
}

// List returns bookings by customer email and/or date, newest first.
func (r *mongoBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	query := bson.M{}
	if filter.Email != "" {
		query["customer_email"] = filter.Email
	}
	if filter.Date != "" {
		query["booking_date"] = filter.Date
	}
	opts := options.Find().SetSort(bson.D{{Key: "booking_date", Value: -1}, {Key: "start_time", Value: 1}})
	return r.find(ctx, query, opts)
}

// ListActiveByRoomAndDate returns pending and confirmed bookings of a room on a date.
func (r *mongoBookingRepo) ListActiveByRoomAndDate(ctx context.Context, roomID, date string) ([]models.Booking, error) {
	query := bson.M{
		"room_id":      roomID,
		"booking_date": date,
		"status":       bson.M{"$in": []string{models.BookingStatusPending, models.BookingStatusConfirmed}},
	}
	return r.find(ctx, query, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}

func (r *mongoBookingRepo) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepo) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"stripe_session_id": sessionID, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepo) SetCalendarEventID(ctx context.Context, id, eventID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "$or": bson.A{
		bson.M{"calendar_event_id": nil},
		bson.M{"calendar_event_id": ""},
	}}
	update := bson.M{"$set": bson.M{"calendar_event_id": eventID, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error storing calendar event for booking %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *mongoBookingRepo) MarkConfirmationSent(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "confirmation_sent": false}
	update := bson.M{"$set": bson.M{"confirmation_sent": true, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error marking confirmation for booking %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}
