package models

// TimeSlot is one hour-wide bookable unit of room time.
type TimeSlot struct {
	TimeSlot    string `json:"time_slot"` // "14:00"
	IsAvailable bool   `json:"is_available"`
}

// Availability is the reconciled view of a room on a date.
type Availability struct {
	RoomID          string     `json:"room_id"`
	RoomName        string     `json:"room_name"`
	Date            string     `json:"date"`
	TimeSlots       []TimeSlot `json:"time_slots"`
	BookedTimes     []string   `json:"booked_times"`
	TotalSlots      int        `json:"total_slots"`
	AvailableSlots  int        `json:"available_slots"`
	DegradedSources []string   `json:"degraded_sources,omitempty"`
}
