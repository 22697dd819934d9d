package models

import "time"

// CalendarEvent is an event read from the external calendar. Start and End are nil
// for all-day events, which carry no datetime.
type CalendarEvent struct {
	ID      string     `json:"id"`
	Summary string     `json:"summary"`
	Start   *time.Time `json:"start,omitempty"`
	End     *time.Time `json:"end,omitempty"`
	Status  string     `json:"status,omitempty"`
}

// CalendarEventInput describes an event to create.
type CalendarEventInput struct {
	ID          string // Optional provider event id; makes repeated inserts detectable
	CalendarID  string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Private     map[string]string
}
