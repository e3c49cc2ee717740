package cmvh

import "testing"

func TestVerify_RoundTrip(t *testing.T) {
	content := Content{Subject: "Hello", From: "alice@example.com", To: "bob@example.com"}

	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	result := Verify(*headers, content)
	if !result.IsValid {
		t.Fatalf("Verify() = %+v, want IsValid=true", result)
	}
	if result.SignerAddress != hardhatAddress {
		t.Errorf("SignerAddress = %s, want %s", result.SignerAddress, hardhatAddress)
	}
}

func TestVerify_TamperedSubjectFails(t *testing.T) {
	content := Content{Subject: "Original", From: "alice@example.com", To: "bob@example.com"}
	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	tampered := content
	tampered.Subject = "Tampered"

	result := Verify(*headers, tampered)
	if result.IsValid {
		t.Error("expected verification to fail after subject tampering")
	}
}

func TestVerify_TamperedFromFails(t *testing.T) {
	content := Content{Subject: "Subj", From: "alice@example.com", To: "bob@example.com"}
	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	tampered := content
	tampered.From = "mallory@example.com"

	result := Verify(*headers, tampered)
	if result.IsValid {
		t.Error("expected verification to fail after from tampering")
	}
}

func TestVerify_TamperedToFails(t *testing.T) {
	content := Content{Subject: "Subj", From: "alice@example.com", To: "bob@example.com"}
	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	tampered := content
	tampered.To = "mallory@example.com"

	result := Verify(*headers, tampered)
	if result.IsValid {
		t.Error("expected verification to fail after to tampering")
	}
}

func TestVerify_AddressMismatchFails(t *testing.T) {
	content := Content{Subject: "Subj", From: "alice@example.com", To: "bob@example.com"}
	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	headers.Address = "0x0000000000000000000000000000000000dead"

	result := Verify(*headers, content)
	if result.IsValid {
		t.Error("expected verification to fail when claimed address doesn't match the signer")
	}
	if result.Error == "" {
		t.Error("expected an error message on failed verification")
	}
}

func TestVerify_InvalidSignatureHexDoesNotPanic(t *testing.T) {
	headers := Headers{Address: hardhatAddress, Signature: "0xnothex"}
	content := Content{Subject: "S", From: "a@example.com", To: "b@example.com"}

	result := Verify(headers, content)
	if result.IsValid {
		t.Error("expected invalid signature hex to fail verification")
	}
	if result.Error == "" {
		t.Error("expected an error message")
	}
}

func TestVerify_WrongSignatureLengthFails(t *testing.T) {
	headers := Headers{Address: hardhatAddress, Signature: "0xabcd"}
	content := Content{Subject: "S", From: "a@example.com", To: "b@example.com"}

	result := Verify(headers, content)
	if result.IsValid {
		t.Error("expected short signature to fail verification")
	}
}

func TestVerify_AddressComparisonIsCaseInsensitive(t *testing.T) {
	content := Content{Subject: "Subj", From: "alice@example.com", To: "bob@example.com"}
	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	upper := *headers
	upper.Address = upperCaseHex(headers.Address)

	result := Verify(upper, content)
	if !result.IsValid {
		t.Errorf("expected case-insensitive address match to still verify, got %+v", result)
	}
}

func upperCaseHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}
