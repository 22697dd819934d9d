package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingRepo "merritt/database/repository/booking"
	roomRepo "merritt/database/repository/room"
	"merritt/models"
	"merritt/services/calendar"
	"merritt/services/events"

	"go.uber.org/zap"
)

type fakeRooms struct {
	rooms map[string]models.Room
	err   error
}

func (f *fakeRooms) GetByID(_ context.Context, id string) (*models.Room, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rooms[id]
	if !ok {
		return nil, roomRepo.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRooms) FirstActive(ctx context.Context) (*models.Room, error) {
	active, err := f.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, roomRepo.ErrNotFound
	}
	return &active[0], nil
}

func (f *fakeRooms) ListActive(context.Context) ([]models.Room, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Room
	for _, r := range f.rooms {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeBookings is an in-memory BookingRepository. With enforceClaims unset it has
// no slot exclusion at all, like a store without the unique claim index.
type fakeBookings struct {
	mu            sync.Mutex
	rows          map[string]models.Booking
	claims        map[string]string
	enforceClaims bool
	listErr       error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{rows: map[string]models.Booking{}, claims: map[string]string{}}
}

func (f *fakeBookings) Create(_ context.Context, b *models.Booking, hours []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enforceClaims {
		for _, h := range hours {
			if _, taken := f.claims[b.RoomID+"|"+b.BookingDate+"|"+h]; taken {
				return bookingRepo.ErrSlotTaken
			}
		}
		for _, h := range hours {
			f.claims[b.RoomID+"|"+b.BookingDate+"|"+h] = b.ID
		}
	}
	f.rows[b.ID] = *b
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookings) GetByPaymentIntent(_ context.Context, pi string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.rows {
		if b.StripePaymentIntentID == pi {
			return &b, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (f *fakeBookings) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, b := range f.rows {
		if filter.Email != "" && b.CustomerEmail != filter.Email {
			continue
		}
		if filter.Date != "" && b.BookingDate != filter.Date {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookings) ListActiveByRoomAndDate(_ context.Context, roomID, date string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Booking
	for _, b := range f.rows {
		if b.RoomID == roomID && b.BookingDate == date && b.HoldsSlot() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) Transition(_ context.Context, id string, from []string, upd models.StatusUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	if len(from) > 0 && !contains(from, b.Status) {
		return false, nil
	}
	if upd.UnlessPaymentStatus != "" && b.PaymentStatus == upd.UnlessPaymentStatus {
		return false, nil
	}
	if upd.Status != "" {
		b.Status = upd.Status
	}
	if upd.PaymentStatus != "" {
		b.PaymentStatus = upd.PaymentStatus
	}
	if upd.StripeSessionID != "" {
		b.StripeSessionID = upd.StripeSessionID
	}
	if upd.StripePaymentIntentID != "" {
		b.StripePaymentIntentID = upd.StripePaymentIntentID
	}
	if upd.CancellationReason != "" {
		b.CancellationReason = upd.CancellationReason
	}
	if upd.Status == models.BookingStatusCancelled {
		for k, owner := range f.claims {
			if owner == id {
				delete(f.claims, k)
			}
		}
	}
	f.rows[id] = b
	return true, nil
}

func (f *fakeBookings) SetCheckoutSession(_ context.Context, id, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.StripeSessionID = sessionID
	f.rows[id] = b
	return nil
}

func (f *fakeBookings) SetCalendarEventID(_ context.Context, id, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok || b.HasCalendarEvent() {
		return false, nil
	}
	b.CalendarEventID = &eventID
	f.rows[id] = b
	return true, nil
}

func (f *fakeBookings) MarkConfirmationSent(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok || b.ConfirmationSent {
		return false, nil
	}
	b.ConfirmationSent = true
	f.rows[id] = b
	return true, nil
}

func (f *fakeBookings) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeBookings) get(id string) models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type fakeBlocked struct {
	rows []models.BlockedTime
}

func (f *fakeBlocked) GetByRoomAndDate(_ context.Context, roomID, date string) ([]models.BlockedTime, error) {
	var out []models.BlockedTime
	for _, bt := range f.rows {
		if bt.RoomID == roomID && bt.Date == date {
			out = append(out, bt)
		}
	}
	return out, nil
}

// fakeCalendar keeps events in memory and, like the real provider, rejects a
// second insert under an id that already exists.
type fakeCalendar struct {
	mu        sync.Mutex
	events    map[string]models.CalendarEvent
	creates   int
	cancelled []string
	listErr   error
	createErr error
	nextID    int
	// beforeList runs on every ListEvents call; tests use it to line up requests.
	beforeList func()
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: map[string]models.CalendarEvent{}}
}

func (f *fakeCalendar) add(id string, start, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[id] = models.CalendarEvent{ID: id, Summary: "busy", Start: &start, End: &end}
}

func (f *fakeCalendar) ListEvents(_ context.Context, _ string, from, to time.Time) ([]models.CalendarEvent, error) {
	if f.beforeList != nil {
		f.beforeList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.CalendarEvent
	for _, e := range f.events {
		if e.Start == nil || e.End == nil {
			out = append(out, e)
			continue
		}
		if e.Start.Before(to) && e.End.After(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, in models.CalendarEventInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	id := in.ID
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("evt%d", f.nextID)
	}
	if _, exists := f.events[id]; exists {
		return id, calendar.ErrDuplicateEvent
	}
	start, end := in.Start, in.End
	f.events[id] = models.CalendarEvent{ID: id, Summary: in.Summary, Start: &start, End: &end}
	f.creates++
	return id, nil
}

func (f *fakeCalendar) CancelEvent(_ context.Context, _ string, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventID)
	f.cancelled = append(f.cancelled, eventID)
	return nil
}

func (f *fakeCalendar) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type fakeGateway struct {
	requests []models.CheckoutRequest
	err      error
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &models.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1", Metadata: req.Metadata}, nil
}

func (f *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*models.CheckoutSession, error) {
	return &models.CheckoutSession{ID: id}, nil
}

func (f *fakeGateway) ParseWebhook([]byte, string) (*models.PaymentEvent, error) {
	return nil, errors.New("not used")
}

type fakeNotifier struct {
	mu            sync.Mutex
	confirmations []models.BookingVariant
	cancellations []string
	alerts        []string
}

func (f *fakeNotifier) SendBookingConfirmation(_ context.Context, b models.BookingVariant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, b)
	return nil
}

func (f *fakeNotifier) SendBookingCancellation(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancellations = append(f.cancellations, b.ID)
	return nil
}

func (f *fakeNotifier) SendOrderConfirmation(context.Context, *models.Order) error        { return nil }
func (f *fakeNotifier) SendPaymentReceipt(context.Context, *models.CheckoutSession) error { return nil }

func (f *fakeNotifier) AlertManager(_ context.Context, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, subject)
	return nil
}

func (f *fakeNotifier) confirmationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.confirmations)
}

type harness struct {
	svc      *DefaultBookingService
	bookings *fakeBookings
	calendar *fakeCalendar
	blocked  *fakeBlocked
	gateway  *fakeGateway
	notifier *fakeNotifier
}

const testRoom = "room-a"

func newHarness() *harness {
	h := &harness{
		bookings: newFakeBookings(),
		calendar: newFakeCalendar(),
		blocked:  &fakeBlocked{},
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
	}
	rooms := &fakeRooms{rooms: map[string]models.Room{
		testRoom: {ID: testRoom, Name: "Boardroom", Capacity: 8, HourlyRate: 40, IsActive: true},
	}}
	h.svc = &DefaultBookingService{
		Rooms:    rooms,
		Bookings: h.bookings,
		Blocked:  h.blocked,
		Calendar: h.calendar,
		Gateway:  h.gateway,
		Notifier: h.notifier,
		Events:   events.NopPublisher{},
		Settings: Settings{
			OpenHour:          8,
			CloseHour:         18,
			Location:          time.UTC,
			FailMode:          FailOpen,
			DefaultRoomName:   "Meeting Room",
			DefaultCalendarID: "primary",
			Currency:          "cad",
			CheckoutExpiryMin: 30,
			SiteURL:           "https://merritt.example",
		},
		Logger: zap.NewNop(),
		now:    func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) },
	}
	return h
}

// seedBooking stores a booking directly, bypassing the workflow.
func (h *harness) seedBooking(id, date, start string, hours float64, status, payment string) *models.Booking {
	b := models.Booking{
		ID: id,
		BookingDetails: models.BookingDetails{
			RoomID:        testRoom,
			RoomName:      "Boardroom",
			CustomerName:  "Ada",
			CustomerEmail: "ada@example.com",
			BookingDate:   date,
			StartTime:     start,
			DurationHours: hours,
		},
		TotalAmount:   80,
		Status:        status,
		PaymentStatus: payment,
	}
	h.bookings.rows[id] = b
	return &b
}

func at(date, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func floatPtr(v float64) *float64 { return &v }
