package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bookinghub/backend/internal/domain"
)

const (
	DefaultResendURL = "https://api.resend.com/emails"
	DefaultFromEmail = "onboarding@resend.dev"

	placeholderKey = "re_your_api_key_here"
)

//go:embed templates/*.html
var templateFS embed.FS

type ResendConfig struct {
	APIKey  string
	From    string
	APIURL  string
	Timeout time.Duration
}

// EmailStatus describes how the mailer is configured, without exposing the
// key itself.
type EmailStatus struct {
	Configured bool   `json:"configured"`
	TestMode   bool   `json:"testMode"`
	FromEmail  string `json:"fromEmail"`
}

// ResendMailer sends appointment emails through the Resend HTTP API. Without
// a real key it runs in test mode: messages are rendered and logged but never
// sent, and every send reports success.
type ResendMailer struct {
	cfg    ResendConfig
	client *http.Client
	tmpl   *template.Template
	log    *slog.Logger
}

type ResendOption func(*ResendMailer)

func WithResendHTTPClient(c *http.Client) ResendOption {
	return func(m *ResendMailer) {
		if c != nil {
			m.client = c
		}
	}
}

func WithResendLogger(log *slog.Logger) ResendOption {
	return func(m *ResendMailer) {
		if log != nil {
			m.log = log
		}
	}
}

func NewResendMailer(cfg ResendConfig, opts ...ResendOption) (*ResendMailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.From == "" {
		cfg.From = DefaultFromEmail
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultResendURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	m := &ResendMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		tmpl:   tmpl,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(slog.String("component", "notify.resend"))
	return m, nil
}

func (m *ResendMailer) Name() string { return "email" }

func (m *ResendMailer) TestMode() bool {
	return m.cfg.APIKey == "" || m.cfg.APIKey == placeholderKey
}

func (m *ResendMailer) Status() EmailStatus {
	return EmailStatus{
		Configured: !m.TestMode(),
		TestMode:   m.TestMode(),
		FromEmail:  m.cfg.From,
	}
}

type emailView struct {
	Name    string
	Service string
	Date    string
	Time    string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Render returns the subject and HTML body for ev.
func (m *ResendMailer) Render(ev Event) (string, string, error) {
	a := ev.Appointment
	var subject string
	switch ev.Kind {
	case KindConfirmation:
		subject = "Appointment Confirmed - " + a.Service
	case KindReminder:
		subject = "Reminder: Upcoming Appointment - " + a.Service
	case KindCancellation:
		subject = "Appointment Cancelled - " + a.Service
	default:
		return "", "", fmt.Errorf("unknown email kind %q", ev.Kind)
	}

	var buf bytes.Buffer
	view := emailView{Name: a.Name, Service: a.Service, Date: longDate(a.Date), Time: a.Time}
	if err := m.tmpl.ExecuteTemplate(&buf, string(ev.Kind)+".html", view); err != nil {
		return "", "", fmt.Errorf("render %s email: %w", ev.Kind, err)
	}
	return subject, buf.String(), nil
}

func (m *ResendMailer) Notify(ctx context.Context, ev Event) error {
	subject, html, err := m.Render(ev)
	if err != nil {
		return err
	}
	to := ev.Appointment.Email

	if m.TestMode() {
		m.log.Info("email test mode, not sent",
			slog.String("kind", string(ev.Kind)),
			slog.String("to", to),
			slog.String("subject", subject),
		)
		return nil
	}

	body, err := json.Marshal(resendRequest{From: m.cfg.From, To: []string{to}, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send email: resend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var sent struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &sent)
	m.log.Info("email sent",
		slog.String("kind", string(ev.Kind)),
		slog.String("to", to),
		slog.String("resend_id", sent.ID),
	)
	return nil
}

func longDate(date string) string {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}
