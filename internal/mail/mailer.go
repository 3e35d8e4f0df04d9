package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-gomail/gomail"
)

// ErrDisabled is returned when no SMTP transport is configured.
var ErrDisabled = errors.New("mail disabled")

// DefaultTimeout bounds one SMTP session, from dial to QUIT.
const DefaultTimeout = 30 * time.Second

// Message is a single outgoing email. HTML is optional.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config carries SMTP transport settings.
type Config struct {
	Host    string
	Port    int
	Secure  bool
	User    string
	Pass    string
	From    string
	Timeout time.Duration
}

// SMTPMailer composes messages with gomail and delivers them over an SMTP
// session whose connection carries a deadline. gomail's own Dialer sets no
// I/O deadline, so a stalled relay would block it forever.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

// NewSMTPMailer builds the mailer. Port 465 always uses implicit TLS.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.SSL = cfg.Secure || cfg.Port == 465
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SMTPMailer{dialer: d, from: from, timeout: timeout}
}

// Verify opens an authenticated session and quits, so misconfiguration is
// caught at startup.
func (m *SMTPMailer) Verify() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	c, stop, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer stop()
	return c.Quit()
}

// Send delivers msg. The session ends when ctx is done or the timeout passes,
// whichever comes first.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm, err := m.build(msg)
	if err != nil {
		return err
	}

	c, stop, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer stop()

	send := gomail.SendFunc(func(from string, to []string, body io.WriterTo) error {
		if err := c.Mail(from); err != nil {
			return err
		}
		for _, rcpt := range to {
			if err := c.Rcpt(rcpt); err != nil {
				return err
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := body.WriteTo(w); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
	if err := gomail.Send(send, gm); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return c.Quit()
}

// open dials, negotiates TLS and authenticates. stop releases the connection
// and must always be called.
func (m *SMTPMailer) open(ctx context.Context) (*smtp.Client, func(), error) {
	d := m.dialer
	addr := net.JoinHostPort(d.Host, fmt.Sprint(d.Port))

	deadline := time.Now().Add(m.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	dialer := net.Dialer{Deadline: deadline}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	if err := raw.SetDeadline(deadline); err != nil {
		raw.Close()
		return nil, nil, err
	}
	// Closing the connection unblocks any pending read or write on cancel.
	unwatch := context.AfterFunc(ctx, func() { raw.Close() })
	stop := func() {
		unwatch()
		raw.Close()
	}

	conn := raw

	tlsConfig := d.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: d.Host}
	}
	if d.SSL {
		conn = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(conn, d.Host)
	if err != nil {
		stop()
		return nil, nil, err
	}
	if !d.SSL {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				stop()
				return nil, nil, err
			}
		}
	}
	if d.Username != "" {
		if ok, mechs := c.Extension("AUTH"); ok {
			var auth smtp.Auth
			if strings.Contains(mechs, "CRAM-MD5") && !strings.Contains(mechs, "PLAIN") {
				auth = smtp.CRAMMD5Auth(d.Username, d.Password)
			} else {
				auth = smtp.PlainAuth("", d.Username, d.Password, d.Host)
			}
			if err := c.Auth(auth); err != nil {
				stop()
				return nil, nil, err
			}
		}
	}
	return c, stop, nil
}

func (m *SMTPMailer) build(msg Message) (*gomail.Message, error) {
	var to []string
	for _, addr := range msg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, errors.New("mail: no recipients")
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", to...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	return gm, nil
}
