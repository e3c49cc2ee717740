package send

import (
	"context"
	"strings"
	"testing"

	"github.com/colimail/colimail-go/internal/errs"
	"github.com/colimail/colimail-go/internal/imapsession"
)

// TestSend_AttachmentCeilingRejectsBeforeAnySMTPConnection is scenario
// S6: gmail.com's 25 MiB ceiling, 30 MiB of attachments, a policy
// error containing "exceeds the limit", and — critically — no socket
// opened to the SMTP host. cfg points at a host that is not listening;
// if Send ever reached the dial step the test would hang or fail with
// a connection error instead of the policy error asserted below.
func TestSend_AttachmentCeilingRejectsBeforeAnySMTPConnection(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 1}
	p := NewPipeline(cfg, imapsession.PasswordAuth{Username: "user@gmail.com", Password: "x"})

	const mib = 1024 * 1024
	msg := Message{
		From:    "user@gmail.com",
		To:      []string{"receiver@example.com"},
		Subject: "Test",
		Attachments: []Attachment{
			{Filename: "big.bin", ContentType: "application/octet-stream", Data: make([]byte, 30*mib)},
		},
		SignerKeyHex: "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		Chain:        "ethereum",
	}

	err := p.Send(context.Background(), msg)
	if err == nil {
		t.Fatal("expected an attachment ceiling rejection")
	}
	if !strings.Contains(err.Error(), "exceeds the limit") {
		t.Errorf("error = %q, want it to mention \"exceeds the limit\"", err.Error())
	}

	var policyErr *errs.PolicyError
	if !errsAs(err, &policyErr) {
		t.Errorf("expected *errs.PolicyError, got %T", err)
	}
}

func errsAs(err error, target **errs.PolicyError) bool {
	e, ok := err.(*errs.PolicyError)
	if !ok {
		return false
	}
	*target = e
	return true
}
