// Package structure is the StructureWorker (spec.md §4.6): a
// background pass, spawned at the tail of each sync, that fetches
// BODYSTRUCTURE for envelopes whose has_attachments is still unknown,
// newest UID first. New code — the teacher has no structural
// enrichment worker — grounded on original_source's idle-manager
// batch/backoff shape and internal/email/read.go's imapclient
// Fetch-loop idiom for the actual round trip.
package structure

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/colimail/colimail-go/internal/errs"
	"github.com/colimail/colimail-go/internal/imapsession"
	"github.com/colimail/colimail-go/internal/mailstore"
)

const (
	batchSize      = 5
	batchPause     = 100 * time.Millisecond
	reconnectEvery = 100
	byeCooldown    = 2 * time.Second
)

// Dialer builds a fresh, unconnected Session for this worker's run.
type Dialer func() *imapsession.Session

// Worker enriches cached envelopes with attachment flags.
type Worker struct {
	store  *mailstore.Store
	logger *slog.Logger
}

// NewWorker builds a StructureWorker backed by store.
func NewWorker(store *mailstore.Store, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, logger: logger}
}

// Run processes every envelope in (accountID, folder) whose
// has_attachments is still unknown, batches of 5 with a 100ms pause
// between batches, reconnecting every 100 batches. ctx is checked at
// each batch boundary for cooperative cancellation.
func (w *Worker) Run(ctx context.Context, accountID int64, folder string, dial Dialer) error {
	sess := dial()
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	if _, err := sess.Select(ctx, folder); err != nil {
		return err
	}

	batches := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		uids, err := w.store.ListPendingStructure(accountID, folder, batchSize)
		if err != nil {
			return err
		}
		if len(uids) == 0 {
			return nil
		}

		for _, uid := range uids {
			if err := w.processOne(ctx, sess, accountID, folder, uid); err != nil {
				return err
			}
		}

		batches++
		if batches%reconnectEvery == 0 {
			// Preemptive reconnect; failures here are not fatal —
			// the next batch's fetch will surface a real error if
			// the connection is actually unusable.
			if err := sess.Reconnect(ctx); err == nil {
				_, _ = sess.Select(ctx, folder)
			}
		}

		time.Sleep(batchPause)
	}
}

// processOne fetches BODYSTRUCTURE for one UID. A Bye or tag mismatch
// triggers one reconnect-and-retry; any other persistent failure
// falls back to has_attachments=false so the UID leaves the pending
// set instead of spinning indefinitely (spec.md §9).
func (w *Worker) processOne(ctx context.Context, sess *imapsession.Session, accountID int64, folder string, uid uint32) error {
	has, err := sess.FetchBodyStructure(ctx, uid)
	if err != nil {
		var connErr *errs.ConnectionError
		if errors.As(err, &connErr) {
			time.Sleep(byeCooldown)
			if rerr := sess.Reconnect(ctx); rerr != nil {
				return rerr
			}
			if _, rerr := sess.Select(ctx, folder); rerr != nil {
				return rerr
			}
			has, err = sess.FetchBodyStructure(ctx, uid)
		}
	}
	if err != nil {
		w.logger.Warn("structure fetch failed, marking no attachment",
			"account_id", accountID, "folder", folder, "uid", uid, "error", err)
		return w.store.SetHasAttachments(accountID, folder, uid, mailstore.AttachmentsFalse)
	}

	v := mailstore.AttachmentsFalse
	if has {
		v = mailstore.AttachmentsTrue
	}
	return w.store.SetHasAttachments(accountID, folder, uid, v)
}
