package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/colimail/colimail-go/internal/errs"
	"github.com/colimail/colimail-go/internal/imapsession"
)

// trashCandidateNames is the fixed fallback list §4.5.6 asks for when
// no LIST attribute identifies the trash folder: provider-specific
// names and common locale variants. New code — there is no teacher
// precedent — transcribed from original_source's trash-folder
// heuristic.
var trashCandidateNames = []string{
	"Trash", "[Gmail]/Trash", "Bin", "Deleted Items", "Deleted Messages",
	"Papierkorb", "Corbeille", "Papelera", "Cestino", "Lixeira", "Prullenbak",
}

// ResolveTrashFolder finds the trash folder by, in order: a LIST
// attribute containing "Trash" or "Deleted", then the fixed name
// list above. The candidate must be selectable.
func ResolveTrashFolder(folders []imapsession.Folder) (string, bool) {
	for _, f := range folders {
		if f.NoSelect {
			continue
		}
		for _, attr := range f.Attributes {
			low := strings.ToLower(attr)
			if strings.Contains(low, "trash") || strings.Contains(low, "deleted") {
				return f.Name, true
			}
		}
	}
	for _, candidate := range trashCandidateNames {
		for _, f := range folders {
			if f.NoSelect {
				continue
			}
			if strings.EqualFold(f.Name, candidate) {
				return f.Name, true
			}
		}
	}
	return "", false
}

// MoveToTrash implements §4.5.6's move_to_trash: resolve the trash
// folder, COPY, mark \Deleted, EXPUNGE (via ImapSession's explicit
// three-step sequence — never Client.Move), then remove the cache row.
func (e *Engine) MoveToTrash(ctx context.Context, accountID int64, folder string, uid uint32, dial Dialer) error {
	sess := dial()
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	folders, err := sess.ListFolders(ctx, "", "*")
	if err != nil {
		return err
	}
	trash, ok := ResolveTrashFolder(folders)
	if !ok {
		return &errs.AuthorizationError{Resource: folder, Err: fmt.Errorf("no trash folder found")}
	}

	if _, err := sess.Select(ctx, folder); err != nil {
		return err
	}
	if err := sess.CopyMarkExpunge(ctx, uid, trash); err != nil {
		return err
	}
	return e.store.DeleteByUID(accountID, folder, uid)
}

// HardDelete implements §4.5.6's hard_delete: mark \Deleted, EXPUNGE,
// remove from cache.
func (e *Engine) HardDelete(ctx context.Context, accountID int64, folder string, uid uint32, dial Dialer) error {
	sess := dial()
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	if _, err := sess.Select(ctx, folder); err != nil {
		return err
	}
	if err := sess.MarkExpunge(ctx, uid); err != nil {
		return err
	}
	return e.store.DeleteByUID(accountID, folder, uid)
}

// SetFlag implements §4.5.6's set_flag: UID STORE ±FLAGS, then update
// the cache. Only \Seen and \Flagged are meaningful to the cache
// schema; other flags are stored on the server only.
func (e *Engine) SetFlag(ctx context.Context, accountID int64, folder string, uid uint32, flag imap.Flag, value bool, dial Dialer) error {
	sess := dial()
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	if _, err := sess.Select(ctx, folder); err != nil {
		return err
	}
	if err := sess.SetFlag(ctx, uid, flag, value); err != nil {
		return err
	}

	switch flag {
	case imap.FlagSeen:
		return e.store.SetFlags(accountID, folder, uid, &value, nil)
	case imap.FlagFlagged:
		return e.store.SetFlags(accountID, folder, uid, nil, &value)
	default:
		return nil
	}
}
