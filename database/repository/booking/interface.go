// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"

	"merritt/database"
	"merritt/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no booking matches.
	ErrNotFound = errors.New("booking not found")
	// ErrSlotTaken is returned when another active booking already claimed one of the hours.
	ErrSlotTaken = errors.New("time slot already booked")
)

// BookingRepository persists paid bookings. Member bookings never reach it.
type BookingRepository interface {
	// Create inserts a pending booking together with one claim per occupied hour.
	Create(ctx context.Context, booking *models.Booking, hours []string) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	ListActiveByRoomAndDate(ctx context.Context, roomID, date string) ([]models.Booking, error)
	// Transition applies upd only if the booking's status is one of from. Cancelling
	// releases the booking's hour claims.
	Transition(ctx context.Context, id string, from []string, upd models.StatusUpdate) (bool, error)
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	// SetCalendarEventID stores the event id only if none is stored yet.
	SetCalendarEventID(ctx context.Context, id, eventID string) (bool, error)
	// MarkConfirmationSent flips confirmation_sent from false to true.
	MarkConfirmationSent(ctx context.Context, id string) (bool, error)
}

type mongoBookingRepo struct {
	client    *mongo.Client
	coll      *mongo.Collection
	claimColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.DB()
	return &mongoBookingRepo{
		client:    database.MongoClient,
		coll:      db.Collection("bookings"),
		claimColl: db.Collection("booking_slot_claims"),
	}
}
