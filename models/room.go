package models

import "time"

// Room is a bookable meeting room. Rooms are maintained by admin tooling and are
// read-only to the booking workflow.
type Room struct {
	ID         string    `bson:"id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Capacity   int       `bson:"capacity" json:"capacity"`
	HourlyRate float64   `bson:"hourly_rate" json:"hourly_rate"`
	Amenities  []string  `bson:"amenities" json:"amenities"`
	IsActive   bool      `bson:"is_active" json:"is_active"`
	CalendarID string    `bson:"calendar_id,omitempty" json:"calendar_id,omitempty"` // Falls back to the default calendar when empty
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
