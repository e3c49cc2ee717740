package cmvh

import (
	"path/filepath"
	"testing"

	"github.com/colimail/colimail-go/internal/mailstore"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cmvh_cache_test.db")
	store, err := mailstore.NewStore(dbPath)
	if err != nil {
		t.Fatalf("mailstore.NewStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewCache(store)
}

func TestVerifyCached_MissThenHit(t *testing.T) {
	c := testCache(t)
	content := Content{Subject: "Hi", From: "alice@example.com", To: "bob@example.com"}
	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	first, err := c.VerifyCached(*headers, content)
	if err != nil {
		t.Fatalf("VerifyCached() error: %v", err)
	}
	if !first.IsValid {
		t.Fatalf("VerifyCached() = %+v, want IsValid=true", first)
	}

	second, err := c.VerifyCached(*headers, content)
	if err != nil {
		t.Fatalf("VerifyCached() error: %v", err)
	}
	if !second.IsValid || second.SignerAddress != hardhatAddress {
		t.Errorf("cached VerifyCached() = %+v, want a valid hit for %s", second, hardhatAddress)
	}
}

func TestVerifyCached_InvalidResultIsAlsoCached(t *testing.T) {
	c := testCache(t)
	content := Content{Subject: "Hi", From: "alice@example.com", To: "bob@example.com"}
	headers, err := Sign(hardhatPrivateKey, content, "Arbitrum")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	headers.Address = "0x0000000000000000000000000000000000dead"

	first, err := c.VerifyCached(*headers, content)
	if err != nil {
		t.Fatalf("VerifyCached() error: %v", err)
	}
	if first.IsValid {
		t.Fatal("expected an invalid result for a mismatched address")
	}

	second, err := c.VerifyCached(*headers, content)
	if err != nil {
		t.Fatalf("VerifyCached() error: %v", err)
	}
	if second.IsValid || second.SignerAddress != "" {
		t.Errorf("cached invalid result changed shape: %+v", second)
	}
}
