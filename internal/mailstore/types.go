package mailstore

import "time"

// AuthKind distinguishes password from bearer-token authentication at
// the account boundary. The rest of the system is auth-agnostic.
type AuthKind string

const (
	AuthPassword AuthKind = "password"
	AuthBearer   AuthKind = "bearer"
)

// Account is the owning identity for a mail account. Sensitive
// credentials live in an external secret store (internal/secret), not
// here — SecretRef names the entry to resolve at connect time.
type Account struct {
	ID        int64
	Address   string
	IMAPHost  string
	IMAPPort  int
	SMTPHost  string
	SMTPPort  int
	AuthKind  AuthKind
	SecretRef string
}

// Folder belongs to an Account. (AccountID, Name) is unique.
// NoSelect folders are not synced.
type Folder struct {
	AccountID   int64
	Name        string
	DisplayName string
	Delimiter   string
	Attributes  []string
	NoSelect    bool
}

// HasAttachments is a tri-state: the server has not been asked yet
// (Unknown), has confirmed attachments are present (True), or has
// confirmed none are present (False — including the StructureWorker's
// give-up fallback).
type HasAttachments int

const (
	AttachmentsUnknown HasAttachments = iota
	AttachmentsTrue
	AttachmentsFalse
)

// EmailHeader is identified by (AccountID, Folder, UID). Body and raw
// headers are lazily populated.
type EmailHeader struct {
	AccountID      int64
	Folder         string
	UID            uint32
	Subject        string
	From           string
	To             string
	Cc             string
	Date           string // raw Date header string, as received
	Timestamp      int64  // parsed epoch seconds
	HasAttachments HasAttachments
	Seen           bool
	Flagged        bool
	SyncedAt       time.Time
}

// Body is the cached HTML (wrapped if a fragment) or escaped
// plaintext body, keyed by (AccountID, Folder, UID).
type Body struct {
	AccountID int64
	Folder    string
	UID       uint32
	HTML      string
	IsHTML    bool
}

// Attachment belongs to an email row.
type Attachment struct {
	EmailID     int64
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// RawHeaders is the full header block, used for signature
// verification. Same key as Body.
type RawHeaders struct {
	AccountID int64
	Folder    string
	UID       uint32
	Headers   string
}

// SyncCursor is per (AccountID, Folder). HighestUID only advances when
// the corresponding envelope has been durably written.
type SyncCursor struct {
	AccountID    int64
	Folder       string
	UIDValidity  uint32
	HighestUID   uint32
	LastSyncTime time.Time
}

// VerificationCacheEntry memoizes a CMVH verification result for 90
// days, keyed by (Signature, EmailHash).
type VerificationCacheEntry struct {
	Signature string
	EmailHash string
	IsValid   bool
	Error     string
	VerifiedAt time.Time
	ExpiresAt  time.Time
}

// VerificationCacheStats accumulates gc/get outcomes for diagnostics.
// Not persisted — reset whenever the process restarts.
type VerificationCacheStats struct {
	Hits   int64
	Misses int64
	Purged int64
}
