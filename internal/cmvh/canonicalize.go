package cmvh

import (
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Fingerprint is the canonical representation CMVH v1 signs and
// verifies: "subject\nfrom\nto", body deliberately excluded so that
// HTML formatting differences between the sender's and a forwarder's
// rendering never invalidate a signature. Signer and verifier MUST
// agree on this exact format.
func Fingerprint(c Content) string {
	return c.Subject + "\n" + c.From + "\n" + c.To
}

// HashKeccak256 returns the keccak-256 digest of a message's
// Fingerprint — the value actually signed and verified.
func HashKeccak256(c Content) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(Fingerprint(c)))
	return h.Sum(nil)
}

func keccakHex(content string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(content))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// AttachmentManifestEntry describes one attachment for the extended
// canonical form's hashed manifest.
type AttachmentManifestEntry struct {
	Filename    string
	ContentType string
	Size        int64
	ContentHash string
}

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// normalizeHTML mirrors the original's sequential (not simultaneous)
// wrapper stripping: it strips a matched "<html>...</html>" pair only
// if both ends are present, then independently strips a matched
// "<body>...</body>" pair from what remains, then collapses every
// whitespace run, line breaks included, to a single space.
func normalizeHTML(html string) string {
	s := strings.TrimSpace(html)

	if rest, ok := strings.CutPrefix(s, "<html>"); ok {
		if rest, ok := strings.CutSuffix(rest, "</html>"); ok {
			s = strings.TrimSpace(rest)
		}
	}
	if rest, ok := strings.CutPrefix(s, "<body>"); ok {
		if rest, ok := strings.CutSuffix(rest, "</body>"); ok {
			s = strings.TrimSpace(rest)
		}
	}

	s = whitespaceRunRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.TrimSpace(s)
}

// attachmentManifestHash sorts attachments by filename then hashes the
// joined "filename:mime:size:content_hash" manifest with keccak-256,
// or returns "" when there are no attachments.
func attachmentManifestHash(atts []AttachmentManifestEntry) string {
	if len(atts) == 0 {
		return ""
	}

	sorted := make([]AttachmentManifestEntry, len(atts))
	copy(sorted, atts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })

	entries := make([]string, len(sorted))
	for i, a := range sorted {
		entries[i] = a.Filename + ":" + a.ContentType + ":" + strconv.FormatInt(a.Size, 10) + ":" + a.ContentHash
	}

	return keccakHex(strings.Join(entries, "|"))
}

// ExtendedFingerprint is the reserved, richer canonical form:
// "From|To|Cc|Subject|Timestamp|BodyHash|AttachmentsHash". It is
// implemented for completeness and potential future protocol versions
// but is NOT called by Sign or Verify today — CMVH v1 signs only
// Fingerprint. See DESIGN.md's Open Question decisions.
func ExtendedFingerprint(c Content, timestamp string, atts []AttachmentManifestEntry) string {
	bodyHash := keccakHex(normalizeHTML(c.Body))
	attHash := attachmentManifestHash(atts)
	return strings.Join([]string{c.From, c.To, c.Cc, c.Subject, timestamp, bodyHash, attHash}, "|")
}

// HashAttachmentContent hashes raw attachment bytes with keccak-256,
// for building an AttachmentManifestEntry's ContentHash.
func HashAttachmentContent(data []byte) string {
	return keccakHex(string(data))
}
