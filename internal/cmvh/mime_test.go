package cmvh

import (
	"strings"
	"testing"
)

func TestBuildSignedMessage_NoAttachments(t *testing.T) {
	headers := Headers{
		Version: "1", Address: "0x1234", Chain: "Arbitrum",
		Timestamp: "123", HashAlgo: "keccak256", Signature: "0xabcd",
	}

	raw, err := BuildSignedMessage("alice@example.com", "bob@example.com", "", "Test Subject", "<p>Hello World</p>", headers, nil)
	if err != nil {
		t.Fatalf("BuildSignedMessage() error: %v", err)
	}

	msg := string(raw)
	for _, want := range []string{
		"alice@example.com",
		"bob@example.com",
		"Subject: Test Subject",
		"X-CMVH-Version: 1",
		"X-CMVH-Address: 0x1234",
		"X-CMVH-Signature: 0xabcd",
		"Hello World",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildSignedMessage_CMVHHeadersPrecedeContentType(t *testing.T) {
	headers := Headers{
		Version: "1", Address: "0x1234", Chain: "Arbitrum",
		Timestamp: "123", HashAlgo: "keccak256", Signature: "0xabcd",
	}
	raw, err := BuildSignedMessage("a@example.com", "b@example.com", "", "S", "<p>hi</p>", headers, nil)
	if err != nil {
		t.Fatalf("BuildSignedMessage() error: %v", err)
	}
	msg := string(raw)

	sigIdx := strings.Index(msg, "X-CMVH-Signature:")
	ctIdx := strings.Index(msg, "Content-Type:")
	if sigIdx < 0 || ctIdx < 0 || sigIdx > ctIdx {
		t.Errorf("expected X-CMVH-Signature before Content-Type, got indices %d, %d", sigIdx, ctIdx)
	}
}

func TestBuildSignedMessage_WithAttachmentUsesMultipartMixed(t *testing.T) {
	headers := Headers{
		Version: "1", Address: "0x1234", Chain: "Arbitrum",
		Timestamp: "123", HashAlgo: "keccak256", Signature: "0xabcd",
	}
	atts := []OutgoingAttachment{{Filename: "report.pdf", ContentType: "application/pdf", Data: []byte("pdfdata")}}

	raw, err := BuildSignedMessage("a@example.com", "b@example.com", "", "S", "<p>hi</p>", headers, atts)
	if err != nil {
		t.Fatalf("BuildSignedMessage() error: %v", err)
	}
	msg := string(raw)

	if !strings.Contains(msg, "multipart/mixed") {
		t.Error("expected a multipart/mixed Content-Type when attachments are present")
	}
	if !strings.Contains(msg, `filename="report.pdf"`) {
		t.Error("expected the attachment's filename in Content-Disposition")
	}
	if !strings.Contains(msg, "Content-Transfer-Encoding: base64") {
		t.Error("expected base64 transfer encoding for the attachment part")
	}
}
