package imapsession

import (
	"fmt"

	"github.com/emersion/go-imap/v2/imapclient"
)

// xoauth2Client implements the SASL XOAUTH2 mechanism: a single
// initial response, no challenge/response round trip. Grounded on the
// o365-mail-cli example's hand-rolled sasl.Client.
type xoauth2Client struct {
	email string
	token string
}

func (x *xoauth2Client) Start() (mech string, ir []byte, err error) {
	authStr := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", x.email, x.token)
	return "XOAUTH2", []byte(authStr), nil
}

func (x *xoauth2Client) Next(challenge []byte) (response []byte, err error) {
	return nil, nil
}

// authenticate dispatches on the AuthMethod tagged union. The rest of
// the session is auth-agnostic once this call returns.
func authenticate(client *imapclient.Client, auth AuthMethod) error {
	switch a := auth.(type) {
	case PasswordAuth:
		return client.Login(a.Username, a.Password).Wait()
	case BearerAuth:
		return client.Authenticate(&xoauth2Client{email: a.Email, token: a.Token})
	default:
		return fmt.Errorf("imapsession: unsupported auth method %T", auth)
	}
}
