package send

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/colimail/colimail-go/internal/errs"
	"github.com/colimail/colimail-go/internal/imapsession"
)

// dialTimeout is the maximum time to establish an SMTP connection,
// generalized from internal/email/smtp.go's smtpDialTimeout constant.
const dialTimeout = 30 * time.Second

// deliver connects, authenticates, and transmits one already-assembled
// RFC 5322 message (spec.md §4.8 steps 4-5). Connections are
// ephemeral: each call opens and closes its own.
func deliver(ctx context.Context, cfg Config, auth imapsession.AuthMethod, from string, recipients []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	dialer := &net.Dialer{Timeout: timeout}

	var client *smtp.Client
	if cfg.ImplicitTLS() {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return &errs.ConnectionError{Op: "dial smtps " + addr, Err: err}
		}
		client, err = smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return &errs.ConnectionError{Op: "smtp client " + addr, Err: err}
		}
	} else {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return &errs.ConnectionError{Op: "dial smtp " + addr, Err: err}
		}
		client, err = smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return &errs.ConnectionError{Op: "smtp client " + addr, Err: err}
		}
	}
	defer client.Close()

	if err := client.Hello("localhost"); err != nil {
		return &errs.ProtocolError{Op: "EHLO", Err: err}
	}

	if !cfg.ImplicitTLS() {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return &errs.ConnectionError{Op: "STARTTLS", Err: err}
		}
	}

	smtpAuth, err := smtpAuthFor(auth, cfg.Host)
	if err != nil {
		return &errs.AuthError{Op: "smtp auth setup", Err: err}
	}
	if smtpAuth != nil {
		if err := client.Auth(smtpAuth); err != nil {
			return &errs.AuthError{Op: "AUTH", Err: err}
		}
	}

	if err := client.Mail(extractAddress(from)); err != nil {
		return &errs.ProtocolError{Op: "MAIL FROM", Err: err}
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return &errs.ProtocolError{Op: "RCPT TO " + rcpt, Err: err}
		}
	}

	w, err := client.Data()
	if err != nil {
		return &errs.ProtocolError{Op: "DATA", Err: err}
	}
	if _, err := w.Write(msg); err != nil {
		return &errs.ProtocolError{Op: "write message", Err: err}
	}
	if err := w.Close(); err != nil {
		return &errs.ProtocolError{Op: "close DATA", Err: err}
	}

	return client.Quit()
}
