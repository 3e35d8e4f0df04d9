package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Alerter pushes new-booking alerts to a staff channel.
type Alerter interface {
	Notify(ctx context.Context, alert BookingAlert) error
}

// BookingAlert is the staff-facing summary of a new booking. It carries no
// contact details.
type BookingAlert struct {
	ID      string
	Name    string
	Service string
	Date    string
	Time    string
}

// SlackNotifier posts to an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier returns nil when no webhook is configured.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, alert BookingAlert) error {
	if s == nil || s.webhookURL == "" {
		return errors.New("slack notifier not configured")
	}

	body, err := json.Marshal(map[string]any{"text": formatBookingAlert(alert)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack notification failed: status %d", resp.StatusCode)
	}
	return nil
}

// slackEscaper escapes the characters Slack treats as markup.
var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func formatBookingAlert(a BookingAlert) string {
	return fmt.Sprintf(":tooth: *New booking* %s (%s)\n%s @ %s | id %s",
		slackEscaper.Replace(a.Name), slackEscaper.Replace(a.Service),
		slackEscaper.Replace(a.Date), slackEscaper.Replace(a.Time), a.ID)
}
