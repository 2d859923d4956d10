package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/go-account-api/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// CodeSender delivers verification codes over SMTP. It satisfies the
// coordinator's Notifier contract.
type CodeSender struct {
	mailer Mailer
	ttl    time.Duration
}

func NewCodeSender(m Mailer, ttl time.Duration) *CodeSender {
	return &CodeSender{mailer: m, ttl: ttl}
}

func (s *CodeSender) SendCode(_ context.Context, email string, codeID int, value string) error {
	subject := "Your verification code"
	body := fmt.Sprintf(
		"Your verification code is %s (reference %d).\r\nIt expires in %s and can be used once.",
		value, codeID, s.ttl,
	)
	return s.mailer.SendEmail(email, subject, body)
}
