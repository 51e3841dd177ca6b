package notify

import (
	"context"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"
)

// Result describes one external delivery attempt.
type Result struct {
	Sent   bool
	ID     string
	Reason string
}

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) (Result, error)
}

type WhatsApp interface {
	Send(ctx context.Context, to, body string) (Result, error)
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer delivers HTML mail. With incomplete config every send is a no-op.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg}
	if cfg.Host != "" && cfg.User != "" && cfg.Pass != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
		m.dialer.SSL = cfg.Port == 465
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) (Result, error) {
	if m.dialer == nil {
		return Result{Reason: "Email config missing"}, nil
	}
	if strings.TrimSpace(to) == "" {
		return Result{Reason: "no recipient"}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return Result{}, err
	}
	return Result{Sent: true}, nil
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// TwilioWhatsApp sends WhatsApp text through the Twilio messages API.
type TwilioWhatsApp struct {
	from   string
	client *twilio.RestClient
}

func NewTwilioWhatsApp(cfg TwilioConfig) *TwilioWhatsApp {
	w := &TwilioWhatsApp{from: cfg.From}
	if cfg.AccountSID != "" && cfg.AuthToken != "" && cfg.From != "" {
		w.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
	}
	return w
}

func (w *TwilioWhatsApp) Send(ctx context.Context, to, body string) (Result, error) {
	if w.client == nil {
		return Result{Reason: "WhatsApp config missing"}, nil
	}
	if strings.TrimSpace(to) == "" {
		return Result{Reason: "no recipient"}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(whatsAppAddress(w.from))
	params.SetTo(whatsAppAddress(to))
	params.SetBody(body)
	resp, err := w.client.Api.CreateMessage(params)
	if err != nil {
		return Result{}, err
	}
	result := Result{Sent: true}
	if resp != nil && resp.Sid != nil {
		result.ID = *resp.Sid
	}
	return result, nil
}

func whatsAppAddress(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
