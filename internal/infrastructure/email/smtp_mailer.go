package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

// SMTPMailer delivers domain.Email directly over SMTP.
type SMTPMailer struct {
	lg  zerolog.Logger
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig, lg zerolog.Logger) *SMTPMailer {
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{
		lg:  lg.With().Str("component", "smtp_mailer").Logger(),
		cfg: cfg,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, msg domain.Email) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m, err := s.buildMsg(msg)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client init: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("subject", msg.Subject).Msg("smtp send failed")
		if isAuthFailure(err.Error()) {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	s.lg.Debug().Str("subject", msg.Subject).Msg("smtp send ok")
	return nil
}

func (s *SMTPMailer) buildMsg(msg domain.Email) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	m.AddAlternativeString(mail.TypeTextHTML, renderHTML(msg.Subject, msg.Body))
	return m, nil
}

func (s *SMTPMailer) clientOptions() []mail.Option {
	tls := mail.TLSMandatory
	if s.cfg.Insecure {
		tls = mail.TLSOpportunistic
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tls),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// renderHTML wraps the plain body in a minimal escaped page.
func renderHTML(title, body string) string {
	lines := strings.Split(html.EscapeString(body), "\n")
	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + html.EscapeString(title) + `</h2>
    <p>` + strings.Join(lines, "<br/>") + `</p>
  </body>
</html>`
}

func isAuthFailure(msg string) bool {
	for _, s := range []string{"535", "5.7.8", "authentication"} {
		if strings.Contains(strings.ToLower(msg), strings.ToLower(s)) {
			return true
		}
	}
	return false
}
