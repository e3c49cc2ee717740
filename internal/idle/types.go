// Package idle is the IdleSupervisor (spec.md §4.7): a long-running
// actor holding at most one supervised IDLE worker per (account,
// folder) key, emitting domain events onto a single paced
// notification queue. New code — the teacher has no IDLE support at
// all — translated from original_source/idle_manager/{manager,
// session}.rs's async-task shape into goroutines, channels, and a
// sync.Mutex-guarded active set, per spec.md §9's own runtime
// translation guidance.
package idle

import "strings"

// NotificationKind distinguishes the four event shapes a worker can
// emit (spec.md §4.7 step 4).
type NotificationKind int

const (
	NewMessages NotificationKind = iota
	Expunge
	FlagsChanged
	ConnectionLost
)

// Notification is one event queued for the drain worker.
type Notification struct {
	AccountID int64
	Folder    string
	Kind      NotificationKind
	Count     uint32 // valid for NewMessages: n - exists_prev
	SeqNum    uint32 // valid for Expunge/FlagsChanged
}

// Key identifies one supervised worker.
type Key struct {
	AccountID int64
	Folder    string
}

// isInbox matches spec.md §4.7's "folder name containing 'inbox' or a
// known localized equivalent" rule, used both to pick the one folder
// StartAllForAccount opens and to suppress non-inbox notifications at
// source.
func isInbox(folder string) bool {
	low := strings.ToLower(folder)
	for _, name := range inboxNames {
		if strings.Contains(low, name) {
			return true
		}
	}
	return false
}

var inboxNames = []string{
	"inbox", "posteingang", "boîte de réception", "bandeja de entrada",
	"posta in arrivo", "caixa de entrada", "postvak in",
}
