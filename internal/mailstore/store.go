// Package mailstore is the embedded relational cache of accounts,
// folders, envelopes, bodies, attachments, raw headers, sync cursors,
// flag state, and the CMVH signature verification cache. All writes
// are single-statement upserts or deletes; there is no multi-row
// transactional guarantee beyond per-row atomicity.
package mailstore

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/colimail/colimail-go/internal/errs"
)

// Store is the relational mailbox cache, backed by SQLite. All public
// methods are safe for concurrent use (SQLite serializes writes); the
// Store itself is the single shared handle spec.md §5 describes —
// there is no cross-operation transaction boundary.
type Store struct {
	db    *sql.DB
	stats VerificationCacheStats
}

// NewStore opens (creating if needed) a mailbox cache at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, &errs.StorageError{Op: "open", Err: err}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &errs.StorageError{Op: "migrate", Err: err}
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		address    TEXT NOT NULL UNIQUE,
		imap_host  TEXT NOT NULL,
		imap_port  INTEGER NOT NULL,
		smtp_host  TEXT NOT NULL,
		smtp_port  INTEGER NOT NULL,
		auth_kind  TEXT NOT NULL,
		secret_ref TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS folders (
		account_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		display_name TEXT NOT NULL,
		delimiter    TEXT NOT NULL,
		flags        TEXT NOT NULL,
		no_select    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (account_id, name)
	);

	CREATE TABLE IF NOT EXISTS emails (
		account_id      INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		folder_name     TEXT NOT NULL,
		uid             INTEGER NOT NULL,
		subject         TEXT NOT NULL DEFAULT '',
		from_addr       TEXT NOT NULL DEFAULT '',
		to_addr         TEXT NOT NULL DEFAULT '',
		cc_addr         TEXT NOT NULL DEFAULT '',
		date            TEXT NOT NULL DEFAULT '',
		timestamp       INTEGER NOT NULL DEFAULT 0,
		synced_at       TEXT NOT NULL,
		body            TEXT,
		body_is_html    INTEGER NOT NULL DEFAULT 0,
		raw_headers     TEXT,
		has_attachments INTEGER NOT NULL DEFAULT 0,
		seen            INTEGER NOT NULL DEFAULT 0,
		flagged         INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (account_id, folder_name, uid)
	);

	CREATE TABLE IF NOT EXISTS attachments (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id   INTEGER NOT NULL,
		folder_name  TEXT NOT NULL,
		uid          INTEGER NOT NULL,
		filename     TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size         INTEGER NOT NULL,
		data         BLOB NOT NULL,
		FOREIGN KEY (account_id, folder_name, uid) REFERENCES emails(account_id, folder_name, uid) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sync_status (
		account_id     INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		folder_name    TEXT NOT NULL,
		uidvalidity    INTEGER NOT NULL,
		highest_uid    INTEGER NOT NULL,
		last_sync_time TEXT NOT NULL,
		PRIMARY KEY (account_id, folder_name)
	);

	CREATE TABLE IF NOT EXISTS cmvh_verification_cache (
		signature   TEXT NOT NULL,
		email_hash  TEXT NOT NULL,
		is_valid    INTEGER NOT NULL,
		error       TEXT,
		verified_at TEXT NOT NULL,
		expires_at  TEXT NOT NULL,
		PRIMARY KEY (signature, email_hash)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertAccount inserts or updates an account keyed by its address,
// returning the assigned row id.
func (s *Store) UpsertAccount(a Account) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO accounts (address, imap_host, imap_port, smtp_host, smtp_port, auth_kind, secret_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address) DO UPDATE SET
			imap_host = excluded.imap_host,
			imap_port = excluded.imap_port,
			smtp_host = excluded.smtp_host,
			smtp_port = excluded.smtp_port,
			auth_kind = excluded.auth_kind,
			secret_ref = excluded.secret_ref
	`, a.Address, a.IMAPHost, a.IMAPPort, a.SMTPHost, a.SMTPPort, string(a.AuthKind), a.SecretRef)
	if err != nil {
		return 0, &errs.StorageError{Op: "upsert_account", Err: err}
	}

	row := s.db.QueryRow(`SELECT id FROM accounts WHERE address = ?`, a.Address)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, &errs.StorageError{Op: "upsert_account", Err: err}
	}
	return id, nil
}

// UpsertFolder inserts or updates a folder's metadata.
func (s *Store) UpsertFolder(accountID int64, f Folder) error {
	_, err := s.db.Exec(`
		INSERT INTO folders (account_id, name, display_name, delimiter, flags, no_select)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, name) DO UPDATE SET
			display_name = excluded.display_name,
			delimiter = excluded.delimiter,
			flags = excluded.flags,
			no_select = excluded.no_select
	`, accountID, f.Name, f.DisplayName, f.Delimiter, strings.Join(f.Attributes, ","), boolToInt(f.NoSelect))
	if err != nil {
		return &errs.StorageError{Op: "upsert_folder", Err: err}
	}
	return nil
}

// ListFolders returns every cached folder for an account.
func (s *Store) ListFolders(accountID int64) ([]Folder, error) {
	rows, err := s.db.Query(
		`SELECT name, display_name, delimiter, flags, no_select FROM folders WHERE account_id = ?`,
		accountID,
	)
	if err != nil {
		return nil, &errs.StorageError{Op: "list_folders", Err: err}
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		var flags string
		var noSelect int
		if err := rows.Scan(&f.Name, &f.DisplayName, &f.Delimiter, &flags, &noSelect); err != nil {
			return nil, &errs.StorageError{Op: "list_folders", Err: err}
		}
		f.AccountID = accountID
		if flags != "" {
			f.Attributes = strings.Split(flags, ",")
		}
		f.NoSelect = noSelect != 0
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// UpsertEnvelope inserts on (account_id, folder, uid); on conflict it
// overwrites envelope fields and synced_at but never clears body,
// has_attachments, raw_headers, or flag columns — those are written
// only by UpdateBody/UpdateRawHeaders/SetFlags/SetHasAttachments.
func (s *Store) UpsertEnvelope(accountID int64, folder string, h EmailHeader) error {
	_, err := s.db.Exec(`
		INSERT INTO emails (account_id, folder_name, uid, subject, from_addr, to_addr, cc_addr, date, timestamp, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, folder_name, uid) DO UPDATE SET
			subject = excluded.subject,
			from_addr = excluded.from_addr,
			to_addr = excluded.to_addr,
			cc_addr = excluded.cc_addr,
			date = excluded.date,
			timestamp = excluded.timestamp,
			synced_at = excluded.synced_at
	`, accountID, folder, h.UID, h.Subject, h.From, h.To, h.Cc, h.Date, h.Timestamp, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &errs.StorageError{Op: "upsert_envelope", Err: err}
	}
	return nil
}

// UpdateBody caches the HTML or plaintext body for (account, folder, uid).
func (s *Store) UpdateBody(accountID int64, folder string, uid uint32, b Body) error {
	_, err := s.db.Exec(
		`UPDATE emails SET body = ?, body_is_html = ? WHERE account_id = ? AND folder_name = ? AND uid = ?`,
		b.HTML, boolToInt(b.IsHTML), accountID, folder, uid,
	)
	if err != nil {
		return &errs.StorageError{Op: "update_body", Err: err}
	}
	return nil
}

// UpdateRawHeaders caches the full header block for signature
// verification.
func (s *Store) UpdateRawHeaders(accountID int64, folder string, uid uint32, headers string) error {
	_, err := s.db.Exec(
		`UPDATE emails SET raw_headers = ? WHERE account_id = ? AND folder_name = ? AND uid = ?`,
		headers, accountID, folder, uid,
	)
	if err != nil {
		return &errs.StorageError{Op: "update_raw_headers", Err: err}
	}
	return nil
}

// InsertAttachment adds an attachment row tied to an existing envelope.
func (s *Store) InsertAttachment(accountID int64, folder string, uid uint32, a Attachment) error {
	_, err := s.db.Exec(
		`INSERT INTO attachments (account_id, folder_name, uid, filename, content_type, size, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, folder, uid, a.Filename, a.ContentType, a.Size, a.Data,
	)
	if err != nil {
		return &errs.StorageError{Op: "insert_attachment", Err: err}
	}
	return nil
}

// SetFlags updates seen/flagged for a single UID. Passing nil for
// either pointer leaves that column untouched.
func (s *Store) SetFlags(accountID int64, folder string, uid uint32, seen, flagged *bool) error {
	if seen == nil && flagged == nil {
		return nil
	}
	if seen != nil && flagged != nil {
		_, err := s.db.Exec(
			`UPDATE emails SET seen = ?, flagged = ? WHERE account_id = ? AND folder_name = ? AND uid = ?`,
			boolToInt(*seen), boolToInt(*flagged), accountID, folder, uid,
		)
		if err != nil {
			return &errs.StorageError{Op: "set_flags", Err: err}
		}
		return nil
	}
	if seen != nil {
		_, err := s.db.Exec(
			`UPDATE emails SET seen = ? WHERE account_id = ? AND folder_name = ? AND uid = ?`,
			boolToInt(*seen), accountID, folder, uid,
		)
		if err != nil {
			return &errs.StorageError{Op: "set_flags", Err: err}
		}
		return nil
	}
	_, err := s.db.Exec(
		`UPDATE emails SET flagged = ? WHERE account_id = ? AND folder_name = ? AND uid = ?`,
		boolToInt(*flagged), accountID, folder, uid,
	)
	if err != nil {
		return &errs.StorageError{Op: "set_flags", Err: err}
	}
	return nil
}

// SetHasAttachments records the tri-state attachment flag, used both
// by the StructureWorker's confirmed result and its give-up fallback.
func (s *Store) SetHasAttachments(accountID int64, folder string, uid uint32, v HasAttachments) error {
	_, err := s.db.Exec(
		`UPDATE emails SET has_attachments = ? WHERE account_id = ? AND folder_name = ? AND uid = ?`,
		int(v), accountID, folder, uid,
	)
	if err != nil {
		return &errs.StorageError{Op: "set_has_attachments", Err: err}
	}
	return nil
}

// DeleteByUID removes a cached envelope (and its attachments, via
// cascade) for (account, folder, uid).
func (s *Store) DeleteByUID(accountID int64, folder string, uid uint32) error {
	_, err := s.db.Exec(
		`DELETE FROM emails WHERE account_id = ? AND folder_name = ? AND uid = ?`,
		accountID, folder, uid,
	)
	if err != nil {
		return &errs.StorageError{Op: "delete_by_uid", Err: err}
	}
	return nil
}

// GetSyncCursor returns the stored cursor for (account, folder), or
// the zero value with ok=false if none exists yet.
func (s *Store) GetSyncCursor(accountID int64, folder string) (cursor SyncCursor, ok bool, err error) {
	var lastSync string
	row := s.db.QueryRow(
		`SELECT uidvalidity, highest_uid, last_sync_time FROM sync_status WHERE account_id = ? AND folder_name = ?`,
		accountID, folder,
	)
	var uidValidity, highestUID int64
	if scanErr := row.Scan(&uidValidity, &highestUID, &lastSync); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return SyncCursor{}, false, nil
		}
		return SyncCursor{}, false, &errs.StorageError{Op: "get_sync_cursor", Err: scanErr}
	}
	t, _ := time.Parse(time.RFC3339, lastSync)
	return SyncCursor{
		AccountID:    accountID,
		Folder:       folder,
		UIDValidity:  uint32(uidValidity),
		HighestUID:   uint32(highestUID),
		LastSyncTime: t,
	}, true, nil
}

// SetSyncCursor upserts the sync cursor for (account, folder). Callers
// are responsible for spec.md §4.5.4's monotonicity rule — this method
// writes whatever it is given.
func (s *Store) SetSyncCursor(accountID int64, folder string, uidValidity, highestUID uint32, lastSyncTime time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_status (account_id, folder_name, uidvalidity, highest_uid, last_sync_time)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id, folder_name) DO UPDATE SET
			uidvalidity = excluded.uidvalidity,
			highest_uid = excluded.highest_uid,
			last_sync_time = excluded.last_sync_time
	`, accountID, folder, uidValidity, highestUID, lastSyncTime.UTC().Format(time.RFC3339))
	if err != nil {
		return &errs.StorageError{Op: "set_sync_cursor", Err: err}
	}
	return nil
}

// ListUIDs returns every cached UID for (account, folder).
func (s *Store) ListUIDs(accountID int64, folder string) ([]uint32, error) {
	rows, err := s.db.Query(
		`SELECT uid FROM emails WHERE account_id = ? AND folder_name = ? ORDER BY uid`,
		accountID, folder,
	)
	if err != nil {
		return nil, &errs.StorageError{Op: "list_uids", Err: err}
	}
	defer rows.Close()

	var uids []uint32
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return nil, &errs.StorageError{Op: "list_uids", Err: err}
		}
		uids = append(uids, uint32(uid))
	}
	return uids, rows.Err()
}

// ListPendingStructure returns envelopes whose has_attachments is
// unknown, newest UID first — the StructureWorker's work queue.
func (s *Store) ListPendingStructure(accountID int64, folder string, limit int) ([]uint32, error) {
	rows, err := s.db.Query(
		`SELECT uid FROM emails WHERE account_id = ? AND folder_name = ? AND has_attachments = ?
		 ORDER BY uid DESC LIMIT ?`,
		accountID, folder, int(AttachmentsUnknown), limit,
	)
	if err != nil {
		return nil, &errs.StorageError{Op: "list_pending_structure", Err: err}
	}
	defer rows.Close()

	var uids []uint32
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return nil, &errs.StorageError{Op: "list_pending_structure", Err: err}
		}
		uids = append(uids, uint32(uid))
	}
	return uids, rows.Err()
}

// GetFlags returns the cached seen/flagged state for uid, used by flag
// reconciliation to decide whether a rewrite is needed.
func (s *Store) GetFlags(accountID int64, folder string, uid uint32) (seen, flagged bool, err error) {
	row := s.db.QueryRow(
		`SELECT seen, flagged FROM emails WHERE account_id = ? AND folder_name = ? AND uid = ?`,
		accountID, folder, uid,
	)
	var seenInt, flaggedInt int
	if scanErr := row.Scan(&seenInt, &flaggedInt); scanErr != nil {
		return false, false, &errs.StorageError{Op: "get_flags", Err: scanErr}
	}
	return seenInt != 0, flaggedInt != 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetVerificationCache looks up a memoized CMVH verification result by
// (signature, emailHash). Entries past their expiry are treated as a
// miss but are not deleted here — that is GCVerificationCache's job.
func (s *Store) GetVerificationCache(signature, emailHash string) (entry VerificationCacheEntry, ok bool, err error) {
	row := s.db.QueryRow(
		`SELECT is_valid, error, verified_at, expires_at FROM cmvh_verification_cache
		 WHERE signature = ? AND email_hash = ?`,
		signature, emailHash,
	)
	var isValid int
	var errStr sql.NullString
	var verifiedAt, expiresAt string
	if scanErr := row.Scan(&isValid, &errStr, &verifiedAt, &expiresAt); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			s.stats.Misses++
			return VerificationCacheEntry{}, false, nil
		}
		return VerificationCacheEntry{}, false, &errs.StorageError{Op: "get_verification_cache", Err: scanErr}
	}

	expires, _ := time.Parse(time.RFC3339, expiresAt)
	if time.Now().UTC().After(expires) {
		s.stats.Misses++
		return VerificationCacheEntry{}, false, nil
	}

	verified, _ := time.Parse(time.RFC3339, verifiedAt)
	s.stats.Hits++
	return VerificationCacheEntry{
		Signature:  signature,
		EmailHash:  emailHash,
		IsValid:    isValid != 0,
		Error:      errStr.String,
		VerifiedAt: verified,
		ExpiresAt:  expires,
	}, true, nil
}

// PutVerificationCache upserts a verification result with a 90-day TTL
// from now.
func (s *Store) PutVerificationCache(signature, emailHash string, isValid bool, verifyErr string) error {
	now := time.Now().UTC()
	expires := now.AddDate(0, 0, 90)
	_, err := s.db.Exec(`
		INSERT INTO cmvh_verification_cache (signature, email_hash, is_valid, error, verified_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (signature, email_hash) DO UPDATE SET
			is_valid = excluded.is_valid,
			error = excluded.error,
			verified_at = excluded.verified_at,
			expires_at = excluded.expires_at
	`, signature, emailHash, boolToInt(isValid), nullIfEmpty(verifyErr), now.Format(time.RFC3339), expires.Format(time.RFC3339))
	if err != nil {
		return &errs.StorageError{Op: "put_verification_cache", Err: err}
	}
	return nil
}

// GCVerificationCache deletes every expired cache entry and returns
// the number purged, accumulating into the running stats counter.
func (s *Store) GCVerificationCache() (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM cmvh_verification_cache WHERE expires_at <= ?`,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, &errs.StorageError{Op: "gc_verification_cache", Err: err}
	}
	n, _ := res.RowsAffected()
	s.stats.Purged += n
	return n, nil
}

// VerificationCacheStats returns the accumulated hit/miss/purge counts
// since the Store was opened.
func (s *Store) VerificationCacheStats() VerificationCacheStats {
	return s.stats
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
