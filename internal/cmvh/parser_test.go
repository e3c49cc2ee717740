package cmvh

import "testing"

func TestParseHeaders_ValidHeaders(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Test Email\r\n" +
		"X-CMVH-Version: 1\r\n" +
		"X-CMVH-Address: 0x1234567890123456789012345678901234567890\r\n" +
		"X-CMVH-Chain: Arbitrum\r\n" +
		"X-CMVH-Timestamp: 1730733600\r\n" +
		"X-CMVH-HashAlgo: keccak256\r\n" +
		"X-CMVH-Signature: 0x1234\r\n" +
		"X-CMVH-ENS: alice.eth\r\n"

	headers, err := ParseHeaders(raw)
	if err != nil {
		t.Fatalf("ParseHeaders() error: %v", err)
	}
	if headers.Version != "1" {
		t.Errorf("Version = %q, want %q", headers.Version, "1")
	}
	if headers.Chain != "Arbitrum" {
		t.Errorf("Chain = %q, want %q", headers.Chain, "Arbitrum")
	}
	if headers.ENS != "alice.eth" {
		t.Errorf("ENS = %q, want %q", headers.ENS, "alice.eth")
	}
}

func TestParseHeaders_MissingRequiredFieldErrors(t *testing.T) {
	raw := "X-CMVH-Version: 1\r\nX-CMVH-Address: 0x1234\r\n"
	if _, err := ParseHeaders(raw); err == nil {
		t.Error("expected an error for missing required CMVH headers")
	}
}

func validHeaders() Headers {
	return Headers{
		Version:   "1",
		Address:   "0x1234567890123456789012345678901234567890",
		Chain:     "Arbitrum",
		Timestamp: "1730733600",
		HashAlgo:  "keccak256",
		Signature: "0x" + repeatHex(130),
	}
}

func repeatHex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "0123456789abcdef"[i%16]
	}
	return string(b)
}

func TestValidateHeaders_Valid(t *testing.T) {
	if err := ValidateHeaders(validHeaders()); err != nil {
		t.Errorf("ValidateHeaders() error: %v", err)
	}
}

func TestValidateHeaders_RejectsUnsupportedVersion(t *testing.T) {
	h := validHeaders()
	h.Version = "2"
	if err := ValidateHeaders(h); err == nil {
		t.Error("expected rejection of unsupported version")
	}
}

func TestValidateHeaders_RejectsShortAddress(t *testing.T) {
	h := validHeaders()
	h.Address = "0x123"
	if err := ValidateHeaders(h); err == nil {
		t.Error("expected rejection of short address")
	}
}

func TestValidateHeaders_RejectsBadSignatureLength(t *testing.T) {
	h := validHeaders()
	h.Signature = "0xabcd"
	if err := ValidateHeaders(h); err == nil {
		t.Error("expected rejection of short signature")
	}
}

func TestValidateHeaders_RejectsNonNumericTimestamp(t *testing.T) {
	h := validHeaders()
	h.Timestamp = "not-a-number"
	if err := ValidateHeaders(h); err == nil {
		t.Error("expected rejection of non-numeric timestamp")
	}
}
