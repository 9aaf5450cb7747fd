// Package notify delivers account emails over SMTP. Delivery failures are
// the caller's concern to log or ignore; nothing here touches account state.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Mailer sends HTML mail through a single SMTP endpoint. It speaks STARTTLS
// when the server offers it and authenticates with PLAIN when credentials
// are configured, which covers both local catchers like MailHog and real
// providers.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	// InsecureSkipVerify disables TLS certificate checks for local dev.
	InsecureSkipVerify bool
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// SendVerificationCode mails the six-digit signup code.
func (m *Mailer) SendVerificationCode(ctx context.Context, name, to, code string) error {
	body := fmt.Sprintf(
		`<h1>Hello %s,</h1>
<p>Thank you for registering. Please use the following code to verify your email address and activate your account:</p>
<h2 style="text-align: center;">%s</h2>
<p>This code will expire in 10 minutes.</p>`, name, code)
	return m.send(ctx, to, "Your Verification Code", body)
}

// SendPasswordResetLink mails the single-use reset link.
func (m *Mailer) SendPasswordResetLink(ctx context.Context, to, resetLink string) error {
	body := fmt.Sprintf(
		`<p>Please click the following link to reset your password:</p><a href="%s">%s</a>`,
		resetLink, resetLink)
	return m.send(ctx, to, "Password Reset Request", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	var sb strings.Builder
	sb.WriteString("From: " + m.from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if err := c.Hello("localhost"); err != nil {
		return err
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		cfg := &tls.Config{
			ServerName:         m.host,
			InsecureSkipVerify: m.InsecureSkipVerify,
		}
		if err := c.StartTLS(cfg); err != nil {
			return err
		}
		// EHLO again so the extension list reflects the TLS session.
		if err := c.Hello("localhost"); err != nil {
			return err
		}
	}

	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(sb.String())); err != nil {
		return err
	}
	return w.Close()
}
