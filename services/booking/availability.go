package booking

import (
	"context"
	"errors"
	"fmt"

	roomRepo "merritt/database/repository/room"
	"merritt/models"
	"merritt/utils"

	"go.uber.org/zap"
)

// Names reported in Availability.DegradedSources.
const (
	sourceCalendar = "calendar"
	sourceDatabase = "database"
)

// GetAvailability merges stored reservations, admin closures and calendar events
// into one slot per business hour of the date.
func (s *DefaultBookingService) GetAvailability(ctx context.Context, roomID, date string) (*models.Availability, error) {
	if date == "" {
		return nil, utils.MissingField("date")
	}
	if _, _, err := dayBounds(date, s.location()); err != nil {
		return nil, utils.BadRequest("Invalid value for field: date").WithDetails("expected YYYY-MM-DD")
	}

	room, err := s.resolveRoom(ctx, roomID, true)
	if err != nil {
		return nil, err
	}

	openHour, closeHour := s.Settings.OpenHour, s.Settings.CloseHour
	busy := hourSet{}
	var degraded []string

	calBusy, err := s.calendarBusy(ctx, s.calendarFor(room), date)
	if err != nil {
		s.Logger.Warn("Calendar unavailable for availability", zap.String("date", date), zap.Error(err))
		degraded = append(degraded, sourceCalendar)
	}
	dbBusy, err := s.persistedBusy(ctx, room.ID, date)
	if err != nil {
		s.Logger.Warn("Database unavailable for availability", zap.String("roomID", room.ID), zap.String("date", date), zap.Error(err))
		degraded = append(degraded, sourceDatabase)
	}
	for h := range calBusy {
		busy[h] = struct{}{}
	}
	for h := range dbBusy {
		busy[h] = struct{}{}
	}
	if len(degraded) > 0 && s.Settings.FailMode == FailClosed {
		busy.addAll(openHour, closeHour)
	}

	slots := make([]models.TimeSlot, 0, closeHour-openHour+1)
	available := 0
	for h := openHour; h <= closeHour; h++ {
		free := !busy.has(h)
		if free {
			available++
		}
		slots = append(slots, models.TimeSlot{TimeSlot: hourLabel(h), IsAvailable: free})
	}

	return &models.Availability{
		RoomID:          room.ID,
		RoomName:        room.Name,
		Date:            date,
		TimeSlots:       slots,
		BookedTimes:     busy.labels(),
		TotalSlots:      len(slots),
		AvailableSlots:  available,
		DegradedSources: degraded,
	}, nil
}

// calendarBusy returns the business hours covered by timed events on the date.
// All-day events carry no datetime and are skipped. Without a calendar nothing is busy.
func (s *DefaultBookingService) calendarBusy(ctx context.Context, calendarID, date string) (hourSet, error) {
	dayStart, dayEnd, err := dayBounds(date, s.location())
	if err != nil {
		return nil, err
	}
	if s.Calendar == nil {
		return hourSet{}, nil
	}
	evts, err := s.Calendar.ListEvents(ctx, calendarID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	busy := hourSet{}
	for _, evt := range evts {
		if evt.Start == nil || evt.End == nil || evt.Status == "cancelled" {
			continue
		}
		startMin, endMin, ok := clipToDay(evt.Start.In(s.location()), evt.End.In(s.location()), dayStart, dayEnd)
		if !ok {
			continue
		}
		busy.addInterval(startMin, endMin, s.Settings.OpenHour, s.Settings.CloseHour)
	}
	return busy, nil
}

// persistedBusy returns the hours held by pending or confirmed bookings and by
// blocked times of the room on the date.
func (s *DefaultBookingService) persistedBusy(ctx context.Context, roomID, date string) (hourSet, error) {
	bookings, err := s.Bookings.ListActiveByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	busy := hourSet{}
	for _, b := range bookings {
		startMin, err := parseClock(b.StartTime)
		if err != nil {
			s.Logger.Warn("Skipping booking with bad start time", zap.String("bookingID", b.ID), zap.String("start", b.StartTime))
			continue
		}
		busy.addInterval(startMin, endClock(startMin, b.DurationHours), s.Settings.OpenHour, s.Settings.CloseHour)
	}

	if s.Blocked != nil {
		blocked, err := s.Blocked.GetByRoomAndDate(ctx, roomID, date)
		if err != nil {
			return nil, fmt.Errorf("list blocked times: %w", err)
		}
		for _, bt := range blocked {
			startMin, err1 := parseClock(bt.StartTime)
			endMin, err2 := parseClock(bt.EndTime)
			if err1 != nil || err2 != nil {
				s.Logger.Warn("Skipping malformed blocked time", zap.String("blockedID", bt.ID))
				continue
			}
			busy.addInterval(startMin, endMin, s.Settings.OpenHour, s.Settings.CloseHour)
		}
	}
	return busy, nil
}

// resolveRoom finds the room a request refers to. An empty id means the configured
// default room, or the first active room. When tolerant is set an unreachable store
// (or an empty catalogue with no explicit id) yields a placeholder room on the
// default calendar instead of an error.
func (s *DefaultBookingService) resolveRoom(ctx context.Context, roomID string, tolerant bool) (*models.Room, error) {
	id := roomID
	if id == "" {
		id = s.Settings.DefaultRoomID
	}

	var (
		room *models.Room
		err  error
	)
	if id != "" {
		room, err = s.Rooms.GetByID(ctx, id)
	} else {
		room, err = s.Rooms.FirstActive(ctx)
	}

	switch {
	case err == nil:
		if !room.IsActive {
			return nil, utils.NotFound("Meeting room not found").WithDetails(fmt.Sprintf("room %s is not active", room.ID))
		}
		return room, nil
	case errors.Is(err, roomRepo.ErrNotFound):
		if roomID != "" || !tolerant {
			return nil, utils.NotFound("Meeting room not found")
		}
	case !tolerant:
		return nil, utils.Internal("Failed to load meeting room", err)
	default:
		s.Logger.Warn("Room lookup failed, using default room", zap.String("roomID", id), zap.Error(err))
	}
	return s.placeholderRoom(id), nil
}

func (s *DefaultBookingService) placeholderRoom(id string) *models.Room {
	if id == "" {
		id = "default"
	}
	return &models.Room{ID: id, Name: s.Settings.DefaultRoomName, IsActive: true}
}

func (s *DefaultBookingService) calendarFor(room *models.Room) string {
	if room.CalendarID != "" {
		return room.CalendarID
	}
	return s.Settings.DefaultCalendarID
}
