package calendar

import (
	"context"
	"errors"
	"time"

	"merritt/models"
)

// ErrDuplicateEvent is returned when an event with the requested id already exists.
var ErrDuplicateEvent = errors.New("calendar event already exists")

// Calendar is the external calendar used both as a busy-time source and as the
// record of member bookings.
type Calendar interface {
	// ListEvents returns every event on calendarID overlapping [from, to).
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]models.CalendarEvent, error)
	// CreateEvent creates an event and returns its provider id.
	CreateEvent(ctx context.Context, in models.CalendarEventInput) (string, error)
	// CancelEvent removes an event. Cancelling an event that is already gone is not an error.
	CancelEvent(ctx context.Context, calendarID, eventID string) error
}
