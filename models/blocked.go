package models

import "time"

// BlockedTime is an admin-maintained closure of a room, e.g. cleaning or a private event.
type BlockedTime struct {
	ID        string    `bson:"id" json:"id"`
	RoomID    string    `bson:"room_id" json:"room_id"`
	Date      string    `bson:"date" json:"date"`             // "2025-06-01"
	StartTime string    `bson:"start_time" json:"start_time"` // "09:00"
	EndTime   string    `bson:"end_time" json:"end_time"`     // "11:30"
	Reason    string    `bson:"reason" json:"reason"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
