// Package notify delivers out-of-band messages to the operator.
// Delivery is best-effort: a lost notification is logged, never retried.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPNotifier sends each notification as one plain-text email.
type SMTPNotifier struct {
	addr    string
	auth    smtp.Auth
	from    string
	to      string
	subject string
}

func NewSMTP(host string, port int, username, password, from, to string) *SMTPNotifier {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPNotifier{
		addr:    fmt.Sprintf("%s:%d", host, port),
		auth:    auth,
		from:    from,
		to:      to,
		subject: "Twitter Tip Bot",
	}
}

func (n *SMTPNotifier) Notify(ctx context.Context, text string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", n.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", n.subject)
	b.WriteString("\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")
	return smtp.SendMail(n.addr, n.auth, n.from, []string{n.to}, []byte(b.String()))
}

// LogNotifier is the fallback sink when no SMTP endpoint is configured:
// notifications land in the operator's log stream instead.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, text string) error {
	n.Log.Warn("operator notification", "text", text)
	return nil
}
