package imapsession

import (
	"context"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/colimail/colimail-go/internal/errs"
)

// SetFlag performs UID STORE ±FLAGS (\Seen|\Flagged) for one message,
// per spec.md §4.5.6.
func (s *Session) SetFlag(ctx context.Context, uid uint32, flag imap.Flag, value bool) error {
	uidSet := imap.UIDSet{}
	uidSet.AddNum(imap.UID(uid))

	op := imap.StoreFlagsAdd
	if !value {
		op = imap.StoreFlagsDel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return err
	}

	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  []imap.Flag{flag},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return &errs.ConnectionError{Op: "store flags", Err: err}
	}
	return nil
}

// FlagState is the (seen, flagged) pair a flag-reconciliation fetch
// reads back for one UID.
type FlagState struct {
	Seen    bool
	Flagged bool
}

// FetchFlags reads (seen, flagged) for a batch of UIDs — the §4.5.5
// flag-reconciliation read. Batches of up to 100 are the caller's
// responsibility.
func (s *Session) FetchFlags(ctx context.Context, uids []uint32) (map[uint32]FlagState, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	uidSet := imap.UIDSet{}
	for _, uid := range uids {
		uidSet.AddNum(imap.UID(uid))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{UID: true, Flags: true})
	out := make(map[uint32]FlagState, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		var uid uint32
		var state FlagState
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			switch data := item.(type) {
			case imapclient.FetchItemDataUID:
				uid = uint32(data.UID)
			case imapclient.FetchItemDataFlags:
				for _, f := range data.Flags {
					switch f {
					case imap.FlagSeen:
						state.Seen = true
					case imap.FlagFlagged:
						state.Flagged = true
					}
				}
			}
		}
		if uid != 0 {
			out[uid] = state
		}
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, &errs.ConnectionError{Op: "fetch flags", Err: err}
	}
	return out, nil
}
