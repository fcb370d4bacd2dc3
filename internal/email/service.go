package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/example/shopwise/internal/logging"
	"github.com/go-mail/mail/v2"
	"github.com/shopspring/decimal"
)

const sendAttempts = 3

// Dialer delivers a composed message. *mail.Dialer implements it.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Plain   string
	HTML    string
}

type Line struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Subtotal decimal.Decimal
}

// OrderConfirmation is the data behind the order placed email.
type OrderConfirmation struct {
	CustomerName  string
	OrderID       string
	Items         []Line
	Total         decimal.Decimal
	PaymentMethod string
	Address       string
}

func (o OrderConfirmation) ShortID() string { return ShortID(o.OrderID) }

// StatusUpdate is the data behind the order status email.
type StatusUpdate struct {
	CustomerName   string
	OrderID        string
	PreviousStatus string
	Status         string
	TrackingNote   string
}

func (s StatusUpdate) ShortID() string { return ShortID(s.OrderID) }

// Service renders and sends transactional emails over SMTP.
type Service struct {
	dialer Dialer
	sender string
	logger *slog.Logger
}

func NewService(host string, port int, username, password, sender string) *Service {
	return NewServiceWithDialer(mail.NewDialer(host, port, username, password), sender)
}

func NewServiceWithDialer(d Dialer, sender string) *Service {
	return &Service{
		dialer: d,
		sender: sender,
		logger: logging.Component("email"),
	}
}

func (s *Service) SendOrderConfirmation(ctx context.Context, to string, data OrderConfirmation) error {
	msg, err := Render(to, orderConfirmation, data)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *Service) SendStatusUpdate(ctx context.Context, to string, data StatusUpdate) error {
	msg, err := Render(to, statusUpdate, data)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// Render executes the subject, plainBody and htmlBody templates.
func Render(to string, tmpl *template.Template, data any) (*Message, error) {
	var subject, plain, html bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&plain, "plainBody", data); err != nil {
		return nil, fmt.Errorf("render plain body: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&html, "htmlBody", data); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	return &Message{
		To:      to,
		Subject: subject.String(),
		Plain:   plain.String(),
		HTML:    html.String(),
	}, nil
}

func (s *Service) send(ctx context.Context, msg *Message) error {
	m := mail.NewMessage()
	m.SetHeader("To", msg.To)
	m.SetHeader("From", s.sender)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Plain)
	m.AddAlternative("text/html", msg.HTML)

	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err = s.dialer.DialAndSend(m); err == nil {
			s.logger.InfoContext(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
			return nil
		}
		s.logger.WarnContext(ctx, "email send failed", "to", msg.To, "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("send email to %s: %w", msg.To, err)
}
