package cmvh

import "testing"

// hardhatPrivateKey and hardhatAddress are Hardhat's well-known test
// account #0, used throughout CMVH tests as a stable vector.
const (
	hardhatPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	hardhatAddress    = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
)

func TestFingerprint(t *testing.T) {
	c := Content{Subject: "Test Subject", From: "alice@example.com", To: "bob@example.com"}
	got := Fingerprint(c)
	want := "Test Subject\nalice@example.com\nbob@example.com"
	if got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}
}

func TestHashKeccak256_Is32Bytes(t *testing.T) {
	c := Content{Subject: "Test", From: "alice@example.com", To: "bob@example.com"}
	h := HashKeccak256(c)
	if len(h) != 32 {
		t.Errorf("HashKeccak256() length = %d, want 32", len(h))
	}
}

func TestAddressFromPrivateKey_HardhatVector(t *testing.T) {
	priv, err := ParsePrivateKey(hardhatPrivateKey)
	if err != nil {
		t.Fatalf("ParsePrivateKey() error: %v", err)
	}
	addr := AddressFromPrivateKey(priv)
	if addr != hardhatAddress {
		t.Errorf("AddressFromPrivateKey() = %s, want %s", addr, hardhatAddress)
	}
}

func TestSign_HardhatVector(t *testing.T) {
	content := Content{Subject: "Test Email", From: "sender@example.com", To: "receiver@example.com"}

	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if headers.Version != "1" {
		t.Errorf("Version = %q, want %q", headers.Version, "1")
	}
	if headers.Address != hardhatAddress {
		t.Errorf("Address = %s, want %s", headers.Address, hardhatAddress)
	}
	if headers.Chain != "Arbitrum" {
		t.Errorf("Chain = %q, want %q", headers.Chain, "Arbitrum")
	}
	if headers.HashAlgo != "keccak256" {
		t.Errorf("HashAlgo = %q, want %q", headers.HashAlgo, "keccak256")
	}
	if len(headers.Signature) != 132 { // "0x" + 130 hex chars
		t.Errorf("Signature length = %d, want 132", len(headers.Signature))
	}
}

func TestSign_AcceptsPrefixedAndUnprefixedKeys(t *testing.T) {
	content := Content{Subject: "S", From: "a@example.com", To: "b@example.com"}

	h1, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign(unprefixed) error: %v", err)
	}
	h2, err := Sign("0x"+hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign(prefixed) error: %v", err)
	}
	if h1.Address != h2.Address {
		t.Errorf("expected the same derived address regardless of 0x prefix")
	}
}
