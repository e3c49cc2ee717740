package imapsession

import (
	"context"

	"github.com/emersion/go-imap/v2"

	"github.com/colimail/colimail-go/internal/errs"
)

// CopyMarkExpunge implements move_to_trash (§4.5.6) as three
// individually observable steps — COPY, then mark \Deleted, then
// EXPUNGE — deliberately not imapclient.Client.Move's single-call
// MOVE-or-fallback, because the sync engine's deletion reconciliation
// needs each step's outcome on its own.
func (s *Session) CopyMarkExpunge(ctx context.Context, uid uint32, destFolder string) error {
	uidSet := imap.UIDSet{}
	uidSet.AddNum(imap.UID(uid))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return err
	}

	if _, err := s.client.Copy(uidSet, destFolder).Wait(); err != nil {
		return &errs.ConnectionError{Op: "copy to " + destFolder, Err: err}
	}

	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return &errs.ConnectionError{Op: "mark deleted", Err: err}
	}

	return s.expungeUIDLocked(uidSet)
}

// MarkExpunge implements hard_delete (§4.5.6): mark \Deleted, then
// EXPUNGE, without a preceding COPY.
func (s *Session) MarkExpunge(ctx context.Context, uid uint32) error {
	uidSet := imap.UIDSet{}
	uidSet.AddNum(imap.UID(uid))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return err
	}

	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return &errs.ConnectionError{Op: "mark deleted", Err: err}
	}

	return s.expungeUIDLocked(uidSet)
}

// expungeUIDLocked uses UID EXPUNGE when the server advertises
// UIDPLUS (so only the targeted UIDs are removed), falling back to a
// plain EXPUNGE otherwise. Caller must hold s.mu.
func (s *Session) expungeUIDLocked(uidSet imap.UIDSet) error {
	if s.caps.Has(imap.CapUIDPlus) {
		if err := s.client.UIDExpunge(uidSet).Close(); err != nil {
			return &errs.ConnectionError{Op: "uid expunge", Err: err}
		}
		return nil
	}
	if err := s.client.Expunge(nil).Close(); err != nil {
		return &errs.ConnectionError{Op: "expunge", Err: err}
	}
	return nil
}
