package cmvh

import (
	"crypto/sha256"
	"fmt"

	"github.com/colimail/colimail-go/internal/mailstore"
)

// Cache memoizes Verify results for 90 days, keyed by (signature,
// email hash), avoiding a repeat signature-recovery computation every
// time a cached message is redisplayed.
type Cache struct {
	store *mailstore.Store
}

// NewCache wraps an already-open mailstore.Store.
func NewCache(store *mailstore.Store) *Cache {
	return &Cache{store: store}
}

// EmailHash derives the cache key component for content, independent
// of the signature itself, so that two different signatures over the
// same metadata don't collide.
func EmailHash(content Content) string {
	h := sha256.Sum256([]byte(Fingerprint(content)))
	return fmt.Sprintf("%x", h)
}

// VerifyCached checks the cache before falling back to Verify, and
// populates the cache with the computed result on a miss.
func (c *Cache) VerifyCached(headers Headers, content Content) (VerificationResult, error) {
	emailHash := EmailHash(content)

	if entry, ok, err := c.store.GetVerificationCache(headers.Signature, emailHash); err != nil {
		return VerificationResult{}, err
	} else if ok {
		result := VerificationResult{
			IsValid:   entry.IsValid,
			ENSName:   headers.ENS,
			Timestamp: headers.Timestamp,
			Chain:     headers.Chain,
			Error:     entry.Error,
		}
		if entry.IsValid {
			result.SignerAddress = headers.Address
		}
		return result, nil
	}

	result := Verify(headers, content)
	if err := c.store.PutVerificationCache(headers.Signature, emailHash, result.IsValid, result.Error); err != nil {
		return result, err
	}
	return result, nil
}

// GC purges expired cache entries and returns the running
// hit/miss/purge counters.
func (c *Cache) GC() (mailstore.VerificationCacheStats, error) {
	if _, err := c.store.GCVerificationCache(); err != nil {
		return mailstore.VerificationCacheStats{}, err
	}
	return c.store.VerificationCacheStats(), nil
}
