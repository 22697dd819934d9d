package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"merritt/models"
)

type message struct {
	subject        string
	customerHTML   string
	managerSubject string
	managerHTML    string
	pushTitle      string
	pushBody       string
	pushData       map[string]string
}

var templates = template.Must(template.New("root").Parse(`
{{define "booking"}}<h2>{{.Heading}}</h2>
<p>Hi {{.B.CustomerName}},</p>
<p>{{.Intro}}</p>
<table>
<tr><td>Booking</td><td>{{.ID}}</td></tr>
<tr><td>Room</td><td>{{.B.RoomName}}</td></tr>
<tr><td>Date</td><td>{{.B.BookingDate}}</td></tr>
<tr><td>Time</td><td>{{.B.StartTime}} - {{.B.EndTime}} ({{.B.DurationHours}} h)</td></tr>
<tr><td>Attendees</td><td>{{.B.Attendees}}</td></tr>
{{if .B.Purpose}}<tr><td>Purpose</td><td>{{.B.Purpose}}</td></tr>{{end}}
{{if .Amount}}<tr><td>Total</td><td>${{printf "%.2f" .Amount}}</td></tr>{{end}}
</table>
<p>Merritt Workspace</p>{{end}}
{{define "manager_booking"}}<h2>{{.Heading}}</h2>
<p>{{.B.CustomerName}} &lt;{{.B.CustomerEmail}}&gt;{{if .B.CompanyName}} from {{.B.CompanyName}}{{end}}{{if .B.CustomerPhone}}, {{.B.CustomerPhone}}{{end}}</p>
<p>{{.B.RoomName}} on {{.B.BookingDate}} {{.B.StartTime}}-{{.B.EndTime}}, {{.B.Attendees}} attendees. Booking {{.ID}} ({{.Kind}}).</p>{{end}}
{{define "order"}}<h2>Order {{.OrderNumber}}</h2>
<p>Hi {{.CustomerName}}, thanks for your order. We will bring it to {{.OfficeLocation}}{{if .DeskNumber}}, desk {{.DeskNumber}}{{end}}.</p>
<table>{{range .Items}}<tr><td>{{.Quantity}} x {{.ProductName}}</td><td>${{printf "%.2f" .TotalPrice}}</td></tr>{{end}}
<tr><td>Total</td><td>${{printf "%.2f" .TotalAmount}}</td></tr></table>
<p>Payment: {{.PaymentMethod}} ({{.PaymentStatus}})</p>{{end}}
{{define "receipt"}}<h2>Payment received</h2>
<p>We received your payment of ${{printf "%.2f" .Amount}} {{.Currency}}.</p>
<p>Reference: {{.ID}}</p>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type bookingView struct {
	Heading string
	Intro   string
	ID      string
	Kind    models.BookingKind
	B       models.BookingDetails
	Amount  float64
}

func (s *DefaultNotificationService) SendBookingConfirmation(ctx context.Context, b models.BookingVariant) error {
	view := bookingView{
		Heading: "Your meeting room is booked",
		Intro:   "Your booking is confirmed and paid.",
		ID:      b.BookingID(),
		Kind:    b.Kind(),
		B:       b.Info(),
		Amount:  b.Amount(),
	}
	managerHeading := "New paid meeting room booking"
	if b.Kind() == models.BookingKindMember {
		view.Intro = "Your member booking is confirmed. The hours are drawn from your membership."
		managerHeading = "New member meeting room booking"
	}

	customerHTML, err := render("booking", view)
	if err != nil {
		return err
	}
	view.Heading = managerHeading
	managerHTML, err := render("manager_booking", view)
	if err != nil {
		return err
	}

	info := b.Info()
	return s.deliver(ctx, info.CustomerEmail, message{
		subject:        fmt.Sprintf("Booking confirmed: %s %s", info.BookingDate, info.StartTime),
		customerHTML:   customerHTML,
		managerSubject: fmt.Sprintf("%s: %s, %s %s", managerHeading, info.CustomerName, info.BookingDate, info.StartTime),
		managerHTML:    managerHTML,
		pushTitle:      managerHeading,
		pushBody:       fmt.Sprintf("%s booked %s at %s", info.CustomerName, info.BookingDate, info.StartTime),
		pushData:       map[string]string{"type": "booking", "bookingId": b.BookingID(), "kind": string(b.Kind())},
	})
}

func (s *DefaultNotificationService) SendBookingCancellation(ctx context.Context, b *models.Booking) error {
	view := bookingView{
		Heading: "Your booking was cancelled",
		Intro:   "Your meeting room booking has been cancelled.",
		ID:      b.ID,
		Kind:    b.Kind(),
		B:       b.BookingDetails,
	}
	if b.CancellationReason != "" {
		view.Intro = fmt.Sprintf("Your meeting room booking has been cancelled (%s).", b.CancellationReason)
	}
	html, err := render("booking", view)
	if err != nil {
		return err
	}
	return s.deliver(ctx, b.CustomerEmail, message{
		subject:      fmt.Sprintf("Booking cancelled: %s %s", b.BookingDate, b.StartTime),
		customerHTML: html,
	})
}

func (s *DefaultNotificationService) SendOrderConfirmation(ctx context.Context, o *models.Order) error {
	html, err := render("order", o)
	if err != nil {
		return err
	}
	return s.deliver(ctx, o.CustomerEmail, message{
		subject:        fmt.Sprintf("Snackshop order %s", o.OrderNumber),
		customerHTML:   html,
		managerSubject: fmt.Sprintf("New snackshop order %s for %s", o.OrderNumber, o.OfficeLocation),
		managerHTML:    html,
		pushTitle:      "New snackshop order",
		pushBody:       fmt.Sprintf("%s: %d item(s) to %s", o.OrderNumber, len(o.Items), o.OfficeLocation),
		pushData:       map[string]string{"type": "order", "orderId": o.ID},
	})
}

func (s *DefaultNotificationService) SendPaymentReceipt(ctx context.Context, cs *models.CheckoutSession) error {
	html, err := render("receipt", struct {
		ID       string
		Amount   float64
		Currency string
	}{cs.ID, float64(cs.AmountTotal) / 100, cs.Currency})
	if err != nil {
		return err
	}
	return s.deliver(ctx, cs.CustomerEmail, message{
		subject:      "Payment received - Merritt Workspace",
		customerHTML: html,
	})
}

func (s *DefaultNotificationService) AlertManager(ctx context.Context, subject, body string) error {
	return s.deliver(ctx, "", message{
		managerSubject: subject,
		managerHTML:    template.HTMLEscapeString(body),
		pushTitle:      subject,
		pushBody:       body,
		pushData:       map[string]string{"type": "alert"},
	})
}
