// Package sync is the SyncEngine (spec.md §4.5): the
// UIDVALIDITY-guarded incremental algorithm, adaptive batching,
// deletion reconciliation, and flag reconciliation. It is grounded
// structurally on internal/email/poller.go's high-water-mark
// pattern, generalized into the full state machine poller.go only
// approximates — poller.go has no UIDVALIDITY guard and no deletion
// reconciliation.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/colimail/colimail-go/internal/codec"
	"github.com/colimail/colimail-go/internal/errs"
	"github.com/colimail/colimail-go/internal/imapsession"
	"github.com/colimail/colimail-go/internal/mailstore"
)

// reconnectCooldown is the fixed 2s mid-batch reconnect delay
// (spec.md §5 — no exponential back-off).
const reconnectCooldown = 2 * time.Second

// Dialer builds a fresh, unconnected Session for one sync invocation.
// The engine never holds a session across invocations (spec.md §5:
// "ImapSession handles are not shared").
type Dialer func() *imapsession.Session

// Engine is the workhorse described in spec.md §4.5.
type Engine struct {
	store  *mailstore.Store
	logger *slog.Logger
}

// NewEngine builds a SyncEngine backed by store.
func NewEngine(store *mailstore.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Sync runs the §4.5.1 state machine once for (accountID, folder):
// INIT→CONNECT→SELECT→DECIDE→{FULL_FETCH|INCREMENTAL_FETCH}→PERSIST→
// RECONCILE_DELETIONS→CURSOR_UPDATE→DONE. REFRESH_AUTH is the
// caller's responsibility — dial already carries a live AuthMethod.
func (e *Engine) Sync(ctx context.Context, accountID int64, folder string, dial Dialer) (newCount int, err error) {
	sess := dial()
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return 0, err
	}
	state, err := sess.Select(ctx, folder)
	if err != nil {
		return 0, err
	}

	cursor, found, err := e.store.GetSyncCursor(accountID, folder)
	if err != nil {
		return 0, err
	}

	var fetched []imapsession.Envelope
	baseUID := cursor.HighestUID
	if !found || cursor.UIDValidity != state.UIDValidity {
		e.logger.Info("full fetch", "account_id", accountID, "folder", folder,
			"cached_uidvalidity", cursor.UIDValidity, "server_uidvalidity", state.UIDValidity)
		baseUID = 0
		fetched, err = e.fullFetch(ctx, sess, folder, state.Exists)
	} else {
		fetched, err = e.incrementalFetch(ctx, sess, folder, cursor.HighestUID)
	}
	if err != nil {
		return 0, err
	}

	if err := e.persist(accountID, folder, fetched); err != nil {
		return 0, err
	}

	// Deletion reconciliation may race with concurrent new mail
	// arriving between this UID SEARCH ALL and the fetch above; the
	// source mitigates by never advancing the cursor past a UID that
	// was not durably fetched, but does not resolve the race itself
	// (spec.md §9 Open Questions — flagged, not resolved).
	if err := e.reconcileDeletions(ctx, sess, accountID, folder); err != nil {
		return len(fetched), err
	}

	highest := advanceCursor(baseUID, fetched)
	if err := e.store.SetSyncCursor(accountID, folder, state.UIDValidity, highest, time.Now().UTC()); err != nil {
		return len(fetched), err
	}

	return len(fetched), nil
}

// batchFetcher fetches up to batchSize items starting from wherever
// the closure's own cursor is, returning how many it actually
// consumed (0 signals "nothing left").
type batchFetcher func(batchSize int) (envs []imapsession.Envelope, consumed int, err error)

// runBatches drives fetch through the adaptive batcher, reconnecting
// and re-selecting on a connection error (locking Bmax per §4.5.2)
// and halving toward the floor on any other protocol error, up to a
// fatal failure at the floor.
func (e *Engine) runBatches(ctx context.Context, sess *imapsession.Session, folder string, fetch batchFetcher) ([]imapsession.Envelope, error) {
	b := newBatcher()
	var all []imapsession.Envelope

	for {
		envs, consumed, err := fetch(b.Size())
		if err != nil {
			var connErr *errs.ConnectionError
			if errors.As(err, &connErr) {
				time.Sleep(reconnectCooldown)
				if rerr := sess.Reconnect(ctx); rerr != nil {
					return nil, rerr
				}
				if _, rerr := sess.Select(ctx, folder); rerr != nil {
					return nil, rerr
				}
				b.OnBye()
				continue
			}
			var protoErr *errs.ProtocolError
			if errors.As(err, &protoErr) {
				if fatal := b.OnProtocolError(); fatal {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		all = append(all, envs...)
		if consumed == 0 {
			break
		}
		b.OnSuccess()
	}

	return all, nil
}

// fullFetch covers the sequence-number range 1..exists (§4.5.2).
// Body structure is intentionally not requested here — attachment
// detection is deferred to the StructureWorker.
func (e *Engine) fullFetch(ctx context.Context, sess *imapsession.Session, folder string, exists uint32) ([]imapsession.Envelope, error) {
	if exists == 0 {
		return nil, nil
	}
	start := uint32(1)
	fetch := func(batchSize int) ([]imapsession.Envelope, int, error) {
		if start > exists {
			return nil, 0, nil
		}
		stop := start + uint32(batchSize) - 1
		if stop > exists {
			stop = exists
		}
		envs, err := sess.FetchRange(ctx, start, stop)
		if err != nil {
			return nil, 0, err
		}
		n := int(stop-start) + 1
		start = stop + 1
		return envs, n, nil
	}
	return e.runBatches(ctx, sess, folder, fetch)
}

// incrementalFetch implements §4.5.3: search UID (highestUID+1):*,
// filter strictly greater than highestUID (guarding the documented
// server bug returning historical messages for a wrapping range),
// fetch in adaptive batches, then filter the parsed envelopes again.
func (e *Engine) incrementalFetch(ctx context.Context, sess *imapsession.Session, folder string, highestUID uint32) ([]imapsession.Envelope, error) {
	criteria := &imap.SearchCriteria{
		UID: []imap.UIDSet{{imap.UIDRange{Start: imap.UID(highestUID + 1)}}},
	}
	uids, err := sess.UIDSearch(ctx, criteria)
	if err != nil {
		return nil, err
	}

	filtered := filterUIDsGreater(uids, highestUID)
	if len(filtered) == 0 {
		return nil, nil
	}

	i := 0
	fetch := func(batchSize int) ([]imapsession.Envelope, int, error) {
		if i >= len(filtered) {
			return nil, 0, nil
		}
		end := i + batchSize
		if end > len(filtered) {
			end = len(filtered)
		}
		envs, err := sess.UIDFetch(ctx, filtered[i:end])
		if err != nil {
			return nil, 0, err
		}
		n := end - i
		i = end
		return envs, n, nil
	}

	all, err := e.runBatches(ctx, sess, folder, fetch)
	if err != nil {
		return nil, err
	}

	return filterEnvelopesGreater(all, highestUID), nil
}

// filterUIDsGreater keeps only UIDs strictly greater than floor,
// guarding against the documented server bug where a wrapping
// UID SEARCH range echoes back UIDs at or below its own start
// (spec.md S3, the Gmail stale-range quirk).
func filterUIDsGreater(uids []uint32, floor uint32) []uint32 {
	out := make([]uint32, 0, len(uids))
	for _, u := range uids {
		if u > floor {
			out = append(out, u)
		}
	}
	return out
}

// filterEnvelopesGreater re-applies filterUIDsGreater's guard to the
// parsed envelopes themselves, in case the server fetched something
// outside the UID set it was asked for.
func filterEnvelopesGreater(envs []imapsession.Envelope, floor uint32) []imapsession.Envelope {
	out := make([]imapsession.Envelope, 0, len(envs))
	for _, env := range envs {
		if env.UID > floor {
			out = append(out, env)
		}
	}
	return out
}

// advanceCursor computes the new high-water mark after a fetch:
// non-decreasing, per Testable Property 2.
func advanceCursor(current uint32, envs []imapsession.Envelope) uint32 {
	highest := current
	for _, env := range envs {
		if env.UID > highest {
			highest = env.UID
		}
	}
	return highest
}

// uidsToDelete returns the cached UIDs absent from the server's
// current UID set (spec.md §4.5.4, Testable Property 4, scenario S5).
func uidsToDelete(cached []uint32, serverUIDs []uint32) []uint32 {
	onServer := make(map[uint32]struct{}, len(serverUIDs))
	for _, u := range serverUIDs {
		onServer[u] = struct{}{}
	}
	var out []uint32
	for _, uid := range cached {
		if _, ok := onServer[uid]; !ok {
			out = append(out, uid)
		}
	}
	return out
}

// persist upserts new envelopes in order, decoding encoded-word
// headers and parsing the date with the server-time fallback
// (internal/codec, C1's contract).
func (e *Engine) persist(accountID int64, folder string, envs []imapsession.Envelope) error {
	for _, env := range envs {
		h := mailstore.EmailHeader{
			AccountID: accountID,
			Folder:    folder,
			UID:       env.UID,
			Subject:   codec.DecodeEncodedWords(env.Subject),
			From:      codec.DecodeEncodedWords(env.From),
			To:        codec.DecodeEncodedWords(env.To),
			Cc:        codec.DecodeEncodedWords(env.Cc),
			Date:      env.Date,
			Timestamp: codec.ParseDate(env.Date, env.InternalAt.Format(time.RFC3339), e.logger),
			Seen:      env.Seen,
			Flagged:   env.Flagged,
		}
		if err := e.store.UpsertEnvelope(accountID, folder, h); err != nil {
			return err
		}
	}
	return nil
}

// reconcileDeletions enumerates server UIDs with UID SEARCH ALL and
// deletes cache rows absent from that set (§4.5.4, Testable Property 4).
func (e *Engine) reconcileDeletions(ctx context.Context, sess *imapsession.Session, accountID int64, folder string) error {
	serverUIDs, err := sess.UIDSearch(ctx, &imap.SearchCriteria{})
	if err != nil {
		return err
	}

	cached, err := e.store.ListUIDs(accountID, folder)
	if err != nil {
		return err
	}

	for _, uid := range uidsToDelete(cached, serverUIDs) {
		if err := e.store.DeleteByUID(accountID, folder, uid); err != nil {
			return err
		}
	}
	return nil
}
