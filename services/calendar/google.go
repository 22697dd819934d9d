package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"merritt/models"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendar implements Calendar on the Google Calendar v3 API.
type GoogleCalendar struct {
	svc      *gcal.Service
	timezone string
	logger   *zap.Logger
}

// NewGoogleCalendar builds a client authenticated with a service account file.
func NewGoogleCalendar(ctx context.Context, credentialsFile, timezone string, logger *zap.Logger) (*GoogleCalendar, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(gcal.CalendarEventsScope))

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create service: %w", err)
	}
	return &GoogleCalendar{svc: svc, timezone: timezone, logger: logger}, nil
}

func (g *GoogleCalendar) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	call := g.svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			out = append(out, models.CalendarEvent{
				ID:      item.Id,
				Summary: item.Summary,
				Start:   parseEventTime(item.Start),
				End:     parseEventTime(item.End),
				Status:  item.Status,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: list events failed: %w", err)
	}
	return out, nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, in models.CalendarEventInput) (string, error) {
	event := &gcal.Event{
		Id:          in.ID,
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       &gcal.EventDateTime{DateTime: in.Start.Format(time.RFC3339), TimeZone: g.timezone},
		End:         &gcal.EventDateTime{DateTime: in.End.Format(time.RFC3339), TimeZone: g.timezone},
	}
	if len(in.Private) > 0 {
		event.ExtendedProperties = &gcal.EventExtendedProperties{Private: in.Private}
	}

	created, err := g.svc.Events.Insert(in.CalendarID, event).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if in.ID != "" && errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return in.ID, ErrDuplicateEvent
		}
		return "", fmt.Errorf("calendar: insert event failed: %w", err)
	}
	g.logger.Info("Calendar event created", zap.String("eventId", created.Id), zap.String("calendarId", in.CalendarID))
	return created.Id, nil
}

func (g *GoogleCalendar) CancelEvent(ctx context.Context, calendarID, eventID string) error {
	err := g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return nil
		}
		return fmt.Errorf("calendar: delete event %s failed: %w", eventID, err)
	}
	return nil
}

// parseEventTime returns nil for all-day events, which only carry a date.
func parseEventTime(dt *gcal.EventDateTime) *time.Time {
	if dt == nil || dt.DateTime == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, dt.DateTime)
	if err != nil {
		return nil
	}
	return &t
}
