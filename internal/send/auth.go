package send

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/colimail/colimail-go/internal/imapsession"
)

// xoauth2SMTPAuth implements net/smtp.Auth for SASL XOAUTH2, the same
// literal payload imapsession's XOAUTH2 client sends over IMAP
// (spec.md §4.8 step 4: "For bearer auth, set SASL mechanism to
// XOAUTH2"). net/smtp.Auth and go-sasl's sasl.Client have different
// method shapes, so this is a second, SMTP-side implementation of the
// same mechanism rather than a reuse of imapsession's.
type xoauth2SMTPAuth struct {
	email string
	token string
}

func (a *xoauth2SMTPAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	payload := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", a.email, a.token)
	return "XOAUTH2", []byte(payload), nil
}

func (a *xoauth2SMTPAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		// The server is expected to accept XOAUTH2 in one round trip;
		// a continuation here means the token was rejected.
		return nil, errors.New("xoauth2: unexpected server continuation: " + string(fromServer))
	}
	return nil, nil
}

// smtpAuthFor builds the net/smtp.Auth for the given AuthMethod and
// host, or nil when auth should be skipped entirely.
func smtpAuthFor(auth imapsession.AuthMethod, host string) (smtp.Auth, error) {
	switch a := auth.(type) {
	case imapsession.PasswordAuth:
		if a.Username == "" {
			return nil, nil
		}
		return smtp.PlainAuth("", a.Username, a.Password, host), nil
	case imapsession.BearerAuth:
		return &xoauth2SMTPAuth{email: a.Email, token: a.Token}, nil
	default:
		return nil, fmt.Errorf("unsupported SMTP auth method %T", auth)
	}
}
