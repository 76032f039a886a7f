package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	statement "stayledger/internal/statement/domain"
)

// SMTPMailer sends statement emails through a plain SMTP relay.
type SMTPMailer struct {
	addr     string
	from     string
	username string
	password string
	host     string
}

// NewSMTPMailer constructs a mailer. addr is host:port; username/password
// may be empty for unauthenticated relays.
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	host := addr
	if idx := strings.LastIndex(addr, ":"); idx > 0 {
		host = addr[:idx]
	}
	return &SMTPMailer{addr: addr, from: from, username: username, password: password, host: host}
}

// IsConfigured reports whether the relay and sender are set.
func (m *SMTPMailer) IsConfigured() bool {
	return m != nil && m.addr != "" && m.from != ""
}

// Send delivers the statement as a plain-text email.
func (m *SMTPMailer) Send(ctx context.Context, to, subject string, stmt *statement.Statement) error {
	if !m.IsConfigured() {
		return errors.New("smtp mailer: not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, to, subject, FormatStatementBody(stmt))
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg))
}
