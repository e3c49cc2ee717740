package imapsession

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/colimail/colimail-go/internal/codec"
	"github.com/colimail/colimail-go/internal/errs"
)

// envelopeFetchOptions is the §4.5.2 item set: UID ENVELOPE FLAGS
// INTERNALDATE RFC822.SIZE. Body structure is deliberately omitted —
// attachment detection is deferred to the StructureWorker.
var envelopeFetchOptions = &imap.FetchOptions{
	UID:         true,
	Envelope:    true,
	Flags:       true,
	InternalDate: true,
	RFC822Size:  true,
}

// FetchRange fetches envelopes for a sequence-number range (used for
// §4.5.2's full fetch).
func (s *Session) FetchRange(ctx context.Context, start, stop uint32) ([]Envelope, error) {
	seqSet := imap.SeqSet{}
	seqSet.AddRange(start, stop)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}
	return s.fetchLocked(seqSet)
}

// UIDFetch fetches envelopes for an explicit UID set (used for
// §4.5.3's incremental fetch).
func (s *Session) UIDFetch(ctx context.Context, uids []uint32) ([]Envelope, error) {
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
	return s.fetchLocked(uidSet)
}

// fetchLocked must be called with s.mu held and a selected mailbox.
func (s *Session) fetchLocked(numSet imap.NumSet) ([]Envelope, error) {
	fetchCmd := s.client.Fetch(numSet, envelopeFetchOptions)

	var envelopes []Envelope
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		env, err := parseEnvelope(msg)
		if err != nil {
			s.logger.Debug("skipping unparseable message", "error", err)
			continue
		}
		envelopes = append(envelopes, env)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, &errs.ConnectionError{Op: "fetch", Err: err}
	}
	return envelopes, nil
}

// parseEnvelope extracts an Envelope from one FETCH response,
// draining any unrequested literal data defensively.
func parseEnvelope(msg *imapclient.FetchMessageData) (Envelope, error) {
	var env Envelope

	for {
		item := msg.Next()
		if item == nil {
			break
		}

		switch data := item.(type) {
		case imapclient.FetchItemDataUID:
			env.UID = uint32(data.UID)
		case imapclient.FetchItemDataFlags:
			for _, f := range data.Flags {
				switch f {
				case imap.FlagSeen:
					env.Seen = true
				case imap.FlagFlagged:
					env.Flagged = true
				}
			}
		case imapclient.FetchItemDataRFC822Size:
			env.Size = uint32(data.Size)
		case imapclient.FetchItemDataInternalDate:
			env.InternalAt = data.Time
		case imapclient.FetchItemDataEnvelope:
			if data.Envelope != nil {
				env.Date = data.Envelope.Date
				env.Subject = data.Envelope.Subject
				if len(data.Envelope.From) > 0 {
					env.From = formatAddress(data.Envelope.From[0])
				}
				env.To = formatAddressList(data.Envelope.To)
				env.Cc = formatAddressList(data.Envelope.Cc)
			}
		case imapclient.FetchItemDataBodySection:
			drainLiteral(data.Literal)
		case imapclient.FetchItemDataBodyStructure:
			// Not requested by envelopeFetchOptions, but drained
			// defensively in case a server sends it unsolicited.
		}
	}

	if env.UID == 0 {
		return env, fmt.Errorf("message missing UID")
	}
	return env, nil
}

func formatAddress(addr imap.Address) string {
	email := addr.Addr()
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, email)
	}
	return email
}

func formatAddressList(addrs []imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	out := formatAddress(addrs[0])
	for _, a := range addrs[1:] {
		out += ", " + formatAddress(a)
	}
	return out
}

// drainLiteral discards a body-section literal so it never blocks
// the IMAP stream, mirroring internal/email.drainLiteral.
func drainLiteral(r imap.LiteralReader) {
	if r == nil {
		return
	}
	buf := make([]byte, 4096)
	for {
		if _, err := r.Read(buf); err != nil {
			return
		}
	}
}

// UIDSearch issues UID SEARCH and returns the matching UIDs in
// ascending order.
func (s *Session) UIDSearch(ctx context.Context, criteria *imap.SearchCriteria) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, &errs.ProtocolError{Op: "uid search", Err: err}
	}

	uids := data.AllUIDs()
	out := make([]uint32, len(uids))
	for i, u := range uids {
		out[i] = uint32(u)
	}
	return out, nil
}

// FetchBodyStructure fetches BODYSTRUCTURE for one UID and returns
// whether the server's serialized structure looks like it carries an
// attachment, via the textual heuristic in internal/codec — the
// body-structure parser is never hand-rolled per spec.md §9.
func (s *Session) FetchBodyStructure(ctx context.Context, uid uint32) (hasAttachment bool, err error) {
	uidSet := imap.UIDSet{}
	uidSet.AddNum(imap.UID(uid))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return false, err
	}

	fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{
		UID:           true,
		BodyStructure: &imap.FetchItemBodyStructure{Extended: true},
	})

	var debug string
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			if bs, ok := item.(imapclient.FetchItemDataBodyStructure); ok {
				debug += fmt.Sprintf("%+v", bs.BodyStructure)
			}
		}
	}

	if err := fetchCmd.Close(); err != nil {
		return false, &errs.ConnectionError{Op: "fetch bodystructure", Err: err}
	}
	return codec.HasAttachment(debug), nil
}
