package team

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/worklens/server/internal/shared/events"
)

// EmailSender delivers invitation emails.
type EmailSender interface {
	SendInvitationEmail(to, teamName, role, token string) error
}

// SMTPConfig holds SMTP configuration.
type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	FromAddress string
	FromName    string
	BaseURL     string // for the accept link
}

// SMTPEmailSender sends invitation emails via SMTP. Deliveries run
// through a circuit breaker so a dead SMTP host degrades to logged
// drops instead of stalling every invite.
type SMTPEmailSender struct {
	config  *SMTPConfig
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
}

// NewSMTPEmailSender creates a new SMTP email sender.
func NewSMTPEmailSender(config *SMTPConfig, logger *zap.Logger) *SMTPEmailSender {
	settings := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &SMTPEmailSender{
		config:  config,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// SendInvitationEmail sends a team invitation email.
func (s *SMTPEmailSender) SendInvitationEmail(to, teamName, role, token string) error {
	acceptURL := fmt.Sprintf("%s/invitations/accept?token=%s", s.config.BaseURL, token)

	subject := fmt.Sprintf("You have been invited to join %s", teamName)
	body, err := renderTemplate(invitationEmailTemplate, map[string]string{
		"TeamName":  teamName,
		"Role":      role,
		"AcceptURL": acceptURL,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.sendEmail(to, subject, body)
	})
	return err
}

func (s *SMTPEmailSender) sendEmail(to, subject, body string) error {
	from := s.config.FromAddress
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.User != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.FromAddress, []string{to}, []byte(msg)); err != nil {
		s.logger.Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NoOpEmailSender logs instead of sending. Used in development and tests.
type NoOpEmailSender struct {
	logger *zap.Logger
}

// NewNoOpEmailSender creates a sender that only logs.
func NewNoOpEmailSender(logger *zap.Logger) *NoOpEmailSender {
	return &NoOpEmailSender{logger: logger}
}

// SendInvitationEmail logs the invitation instead of sending it.
func (s *NoOpEmailSender) SendInvitationEmail(to, teamName, role, token string) error {
	s.logger.Info("invitation email (noop)",
		zap.String("to", to),
		zap.String("team", teamName),
		zap.String("role", role),
	)
	return nil
}

// InvitationMailer subscribes to invitation events and delivers emails.
type InvitationMailer struct {
	sender EmailSender
	logger *zap.Logger
}

// NewInvitationMailer creates the event handler backing invitation email.
func NewInvitationMailer(sender EmailSender, logger *zap.Logger) *InvitationMailer {
	return &InvitationMailer{sender: sender, logger: logger}
}

// Handles returns the event types this handler consumes.
func (m *InvitationMailer) Handles() []string {
	return []string{events.InvitationCreatedType}
}

// Handle delivers the invitation email for InvitationCreated events.
func (m *InvitationMailer) Handle(event events.Event) error {
	created, ok := event.(*events.InvitationCreatedEvent)
	if !ok {
		return nil
	}

	return m.sender.SendInvitationEmail(
		created.InviteeEmail,
		created.TeamName,
		created.Role,
		created.Token,
	)
}

func renderTemplate(tmpl string, data map[string]string) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const invitationEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #2563eb; color: #fff; text-decoration: none; border-radius: 6px; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Team invitation</h2>
        <p>You have been invited to join <strong>{{.TeamName}}</strong> as a {{.Role}}.</p>
        <p><a class="button" href="{{.AcceptURL}}">Accept invitation</a></p>
        <p>If you were not expecting this invitation you can ignore this email.</p>
    </div>
</body>
</html>
`
