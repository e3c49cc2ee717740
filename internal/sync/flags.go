package sync

import (
	"context"

	"github.com/colimail/colimail-go/internal/imapsession"
)

// flagBatchSize is the §4.5.5 read batch size for flag reconciliation.
const flagBatchSize = 100

// SyncFlags reads current (seen, flagged) for every cached UID in
// batches of 100 and writes back only rows whose local flags differ.
func (e *Engine) SyncFlags(ctx context.Context, accountID int64, folder string, dial Dialer) error {
	sess := dial()
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	if _, err := sess.Select(ctx, folder); err != nil {
		return err
	}

	uids, err := e.store.ListUIDs(accountID, folder)
	if err != nil {
		return err
	}

	for i := 0; i < len(uids); i += flagBatchSize {
		end := i + flagBatchSize
		if end > len(uids) {
			end = len(uids)
		}
		if err := e.reconcileFlagBatch(ctx, sess, accountID, folder, uids[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) reconcileFlagBatch(ctx context.Context, sess *imapsession.Session, accountID int64, folder string, batch []uint32) error {
	remote, err := sess.FetchFlags(ctx, batch)
	if err != nil {
		return err
	}

	for _, uid := range batch {
		state, ok := remote[uid]
		if !ok {
			continue
		}
		localSeen, localFlagged, err := e.store.GetFlags(accountID, folder, uid)
		if err != nil {
			return err
		}
		if localSeen == state.Seen && localFlagged == state.Flagged {
			continue
		}
		seen, flagged := state.Seen, state.Flagged
		if err := e.store.SetFlags(accountID, folder, uid, &seen, &flagged); err != nil {
			return err
		}
	}
	return nil
}

// SyncFlagsForUID is the single-message fast path invoked on an IDLE
// FETCH event.
func (e *Engine) SyncFlagsForUID(ctx context.Context, accountID int64, folder string, uid uint32, dial Dialer) error {
	sess := dial()
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	if _, err := sess.Select(ctx, folder); err != nil {
		return err
	}

	remote, err := sess.FetchFlags(ctx, []uint32{uid})
	if err != nil {
		return err
	}
	state, ok := remote[uid]
	if !ok {
		return nil
	}
	seen, flagged := state.Seen, state.Flagged
	return e.store.SetFlags(accountID, folder, uid, &seen, &flagged)
}
