// Package email formats reminder digests and sends them over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/money"
	"github.com/roomly/roomly/internal/property"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Digest is the reminder for one property.
type Digest struct {
	Property    *property.Property
	Bills       []*bill.Bill
	Maintenance []*maintenance.Event
}

// Empty reports whether there is nothing to remind about.
func (d Digest) Empty() bool {
	return len(d.Bills) == 0 && len(d.Maintenance) == 0
}

// Subject returns the email subject line.
func (d Digest) Subject() string {
	return "Reminder: " + d.Property.Address
}

// FormatDigest builds a plain-text reminder listing unpaid bills and upcoming
// maintenance. Dates are shown in loc.
func FormatDigest(d Digest, loc *time.Location) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi,\n\nHere is what's coming up at %s.\n\n", d.Property.Address)

	if len(d.Bills) > 0 {
		fmt.Fprintf(&buf, "Unpaid bills:\n")
		for _, b := range d.Bills {
			line := fmt.Sprintf("- %s due %s", money.Format(b.Amount), b.DueDate.In(loc).Format("Mon Jan 2"))
			if b.Status == bill.StatusOverdue {
				line += " (OVERDUE)"
			}
			if b.Description != "" {
				line += ": " + b.Description
			}
			fmt.Fprintln(&buf, line)
		}
		fmt.Fprintf(&buf, "   Total outstanding: %s\n\n", money.Format(bill.Outstanding(d.Bills)))
	}

	if len(d.Maintenance) > 0 {
		fmt.Fprintf(&buf, "Upcoming maintenance:\n")
		for _, e := range d.Maintenance {
			fmt.Fprintf(&buf, "- %s: %s\n", e.ScheduledAt.In(loc).Format("Mon Jan 2 3:04 PM"), e.Description)
			if e.Notes != "" {
				fmt.Fprintf(&buf, "   %s\n", e.Notes)
			}
		}
		fmt.Fprintln(&buf)
	}

	if d.Empty() {
		fmt.Fprintf(&buf, "Nothing is due and no maintenance is scheduled.\n\n")
	}

	fmt.Fprintf(&buf, "Thanks!\n")

	return buf.String()
}

// Sender delivers mail, printing it instead in dev mode.
type Sender struct {
	cfg     SMTPConfig
	devMode bool
	out     io.Writer
}

// NewSender creates a sender. In dev mode messages are written to out.
func NewSender(cfg SMTPConfig, devMode bool, out io.Writer) *Sender {
	return &Sender{cfg: cfg, devMode: devMode, out: out}
}

// Send delivers one message.
func (s *Sender) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	if s.devMode {
		_, err := fmt.Fprintf(s.out, "\n=== EMAIL (dev mode) ===\nTo: %s\nSubject: %s\n\n%s========================\n\n",
			strings.Join(to, ", "), subject, body)
		slog.Info("email printed (dev mode)", "to", to, "subject", subject)
		return err
	}
	return Send(s.cfg, to, subject, body)
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	tlsCfg := &tls.Config{ServerName: cfg.Host}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
