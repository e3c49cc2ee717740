package imapsession

import (
	"context"
	"sort"

	"github.com/emersion/go-imap/v2"

	"github.com/colimail/colimail-go/internal/errs"
)

// ListFolders issues LIST reference pattern and returns name,
// delimiter, and attribute flags for every mailbox, sorted by name.
func (s *Session) ListFolders(ctx context.Context, reference, pattern string) ([]Folder, error) {
	if pattern == "" {
		pattern = "*"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	mailboxes, err := s.client.List(reference, pattern, nil).Collect()
	if err != nil {
		return nil, &errs.ProtocolError{Op: "list", Err: err}
	}

	folders := make([]Folder, 0, len(mailboxes))
	for _, mbox := range mailboxes {
		f := Folder{Name: mbox.Mailbox, Delimiter: string(mbox.Delim)}
		for _, attr := range mbox.Attrs {
			f.Attributes = append(f.Attributes, string(attr))
			if attr == imap.MailboxAttrNoSelect {
				f.NoSelect = true
			}
		}
		folders = append(folders, f)
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}
