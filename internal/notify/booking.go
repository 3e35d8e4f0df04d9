package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/booking"
	"github.com/sorrisoclinic/clinic-api/internal/mail"
)

var clinicTemplate = template.Must(template.New("booking").Funcs(template.FuncMap{
	"join":  func(items []string) string { return strings.Join(items, ", ") },
	"stamp": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}).Parse(`<h2>New Booking Request</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{or .Email "-"}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Address:</strong> {{.Address}}</p>
<p><strong>Service:</strong> {{.Service}}</p>
{{- if .Reasons}}
<p><strong>Reasons:</strong> {{join .Reasons}}</p>
{{- end}}
<p><strong>Date/Time:</strong> {{.Date}} @ {{.Time}}</p>
<p><strong>Notes:</strong> {{or .Notes "-"}}</p>
<p><em>Submitted at {{stamp .CreatedAt}}</em></p>
`))

// BookingNotifier emails the clinic about each new booking, optionally sends
// the patient an acknowledgement and mirrors the alert to Slack.
type BookingNotifier struct {
	mailer mail.Mailer
	to     string
	ack    bool
	alerts Alerter
	log    zerolog.Logger
}

// NewBookingNotifier builds the notifier. mailer nil means mail is disabled;
// alerts may be nil.
func NewBookingNotifier(mailer mail.Mailer, clinicTo string, ack bool, alerts Alerter, logger zerolog.Logger) *BookingNotifier {
	return &BookingNotifier{mailer: mailer, to: clinicTo, ack: ack, alerts: alerts, log: logger}
}

// Enabled reports whether a verified mail transport is present.
func (n *BookingNotifier) Enabled() bool {
	return n != nil && n.mailer != nil
}

// BookingCreated sends the clinic notification. Only that send decides the
// returned error; acknowledgement and Slack failures are logged.
func (n *BookingNotifier) BookingCreated(ctx context.Context, b booking.Booking) error {
	if !n.Enabled() {
		return mail.ErrDisabled
	}

	html, err := renderClinic(b)
	if err != nil {
		return err
	}
	msg := mail.Message{
		To:      []string{n.to},
		Subject: fmt.Sprintf("New Booking: %s (%s)", b.Name, b.Service),
		Text:    clinicText(b),
		HTML:    html,
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return err
	}

	if n.ack && b.Email != "" {
		ack := mail.Message{
			To:      []string{b.Email},
			Subject: "We received your booking request",
			Text: fmt.Sprintf("Hi %s, we have received your booking request for %s on %s at %s. We will confirm soon.",
				b.Name, b.Service, b.Date, b.Time),
		}
		if err := n.mailer.Send(ctx, ack); err != nil {
			n.log.Warn().Err(err).Str("booking_id", b.ID).Msg("acknowledgement email failed")
		}
	}

	if n.alerts != nil {
		alert := BookingAlert{ID: b.ID, Name: b.Name, Service: b.Service, Date: b.Date, Time: b.Time}
		if err := n.alerts.Notify(ctx, alert); err != nil {
			n.log.Warn().Err(err).Str("booking_id", b.ID).Msg("slack alert failed")
		}
	}
	return nil
}

func renderClinic(b booking.Booking) (string, error) {
	var buf bytes.Buffer
	if err := clinicTemplate.Execute(&buf, b); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func clinicText(b booking.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New Booking Request\n")
	fmt.Fprintf(&sb, "Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "Email: %s\n", orDash(b.Email))
	fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	fmt.Fprintf(&sb, "Address: %s\n", b.Address)
	fmt.Fprintf(&sb, "Service: %s\n", b.Service)
	if len(b.Reasons) > 0 {
		fmt.Fprintf(&sb, "Reasons: %s\n", strings.Join(b.Reasons, ", "))
	}
	fmt.Fprintf(&sb, "Date/Time: %s @ %s\n", b.Date, b.Time)
	fmt.Fprintf(&sb, "Notes: %s\n", orDash(b.Notes))
	fmt.Fprintf(&sb, "Submitted at %s\n", b.CreatedAt.UTC().Format(time.RFC3339))
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
