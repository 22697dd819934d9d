package booking

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// parseClock turns "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// endClock is start plus a fractional number of hours, rounded to the minute.
func endClock(startMinutes int, durationHours float64) int {
	return startMinutes + int(math.Round(durationHours*60))
}

// hourSet is a set of whole hours of one day.
type hourSet map[int]struct{}

// addInterval marks every hour the interval [start, end) touches, i.e.
// [floor(start), ceil(end)), keeping only hours inside [openHour, closeHour].
func (hs hourSet) addInterval(startMin, endMin, openHour, closeHour int) {
	if endMin <= startMin {
		return
	}
	for h := startMin / 60; h*60 < endMin; h++ {
		if h >= openHour && h <= closeHour {
			hs[h] = struct{}{}
		}
	}
}

func (hs hourSet) addAll(openHour, closeHour int) {
	for h := openHour; h <= closeHour; h++ {
		hs[h] = struct{}{}
	}
}

func (hs hourSet) has(h int) bool {
	_, ok := hs[h]
	return ok
}

// intersects reports whether any hour of other is also in hs.
func (hs hourSet) intersects(other hourSet) bool {
	for h := range other {
		if hs.has(h) {
			return true
		}
	}
	return false
}

func (hs hourSet) labels() []string {
	hours := make([]int, 0, len(hs))
	for h := range hs {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	out := make([]string, 0, len(hours))
	for _, h := range hours {
		out = append(out, hourLabel(h))
	}
	return out
}

// requestedHours is the hour set a booking of [start, end) occupies.
func requestedHours(startMin, endMin, openHour, closeHour int) hourSet {
	hs := hourSet{}
	hs.addInterval(startMin, endMin, openHour, closeHour)
	return hs
}

// dayBounds returns local midnight of date and of the following day.
func dayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day.AddDate(0, 0, 1), nil
}

// clipToDay converts an absolute interval into wall-clock minutes of the given day,
// clipped to it. Minutes come from the local clock rather than elapsed time so that
// hour labels stay right on days with a daylight-saving change.
// ok is false when the interval does not overlap the day.
func clipToDay(start, end, dayStart, dayEnd time.Time) (int, int, bool) {
	if !start.Before(dayEnd) || !end.After(dayStart) {
		return 0, 0, false
	}
	loc := dayStart.Location()
	startMin := 0
	if start.After(dayStart) {
		start = start.In(loc)
		startMin = start.Hour()*60 + start.Minute()
	}
	endMin := 24 * 60
	if end.Before(dayEnd) {
		end = end.In(loc)
		endMin = end.Hour()*60 + end.Minute()
		if end.Second() > 0 || end.Nanosecond() > 0 {
			endMin++
		}
	}
	return startMin, endMin, true
}
