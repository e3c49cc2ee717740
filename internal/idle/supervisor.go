package idle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/colimail/colimail-go/internal/imapsession"
)

// reconnectBackoff is the fixed 30s IDLE reconnect delay (spec.md §5).
const reconnectBackoff = 30 * time.Second

// drainPace is the fixed inter-notification pace for the drain worker.
const drainPace = 5 * time.Second

// Dialer builds a fresh, unconnected Session for one worker's
// lifetime. Unlike sync.Dialer, a worker keeps using the same Session
// across IDLE re-entries — it only redials on a socket/protocol error.
type Dialer func() *imapsession.Session

// Supervisor is the actor described in spec.md §4.7: it holds exactly
// one (active_set, task_handle_map) behind a mutex, mutated only by
// the Start/Stop/StopAll/StartAllForAccount/StopAllForAccount commands.
type Supervisor struct {
	mu      sync.Mutex
	workers map[Key]*worker
	queue   chan Notification
	drain   chan Notification
	once    sync.Once
	logger  *slog.Logger
}

// NewSupervisor builds an IdleSupervisor. Notifications call
// Notifications() to obtain the paced output channel.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		workers: make(map[Key]*worker),
		queue:   make(chan Notification, 256),
		drain:   make(chan Notification),
		logger:  logger,
	}
}

// Notifications returns the single paced output channel: one
// notification at most every 5 seconds, for folders whose normalized
// name indicates inbox only suppressed non-inbox notifications are
// filtered at source inside worker.emit, not here.
func (s *Supervisor) Notifications() <-chan Notification {
	s.once.Do(func() { go s.drainLoop() })
	return s.drain
}

func (s *Supervisor) drainLoop() {
	ticker := time.NewTicker(drainPace)
	defer ticker.Stop()
	for n := range s.queue {
		<-ticker.C
		s.drain <- n
	}
}

// Start begins a supervised worker for (accountID, folder) if one is
// not already running.
func (s *Supervisor) Start(accountID int64, folder string, dial Dialer) {
	key := Key{AccountID: accountID, Folder: folder}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.workers[key]; exists {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		key:    key,
		dial:   dial,
		cancel: cancel,
		queue:  s.queue,
		logger: s.logger.With("account_id", accountID, "folder", folder),
	}
	s.workers[key] = w
	go w.run(ctx)
}

// Stop halts and removes the worker for (accountID, folder), if any.
func (s *Supervisor) Stop(accountID int64, folder string) {
	key := Key{AccountID: accountID, Folder: folder}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.workers[key]; ok {
		w.cancel()
		delete(s.workers, key)
	}
}

// StopAll halts every active worker, leaving the active set empty.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, w := range s.workers {
		w.cancel()
		delete(s.workers, key)
	}
}

// StartAllForAccount starts only the INBOX worker for accountID
// (spec.md §4.7's "supervisor simplification", bounding concurrent
// IMAP sessions well below typical provider limits). folders is
// searched for a name containing "inbox" or a localized equivalent;
// if none matches, "INBOX" is used verbatim.
func (s *Supervisor) StartAllForAccount(accountID int64, folders []string, dial Dialer) {
	folder := "INBOX"
	for _, f := range folders {
		if isInbox(f) {
			folder = f
			break
		}
	}
	s.Start(accountID, folder, dial)
}

// StopAllForAccount halts every worker belonging to accountID.
func (s *Supervisor) StopAllForAccount(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, w := range s.workers {
		if key.AccountID == accountID {
			w.cancel()
			delete(s.workers, key)
		}
	}
}

// ActiveKeys returns a snapshot of currently supervised (account,
// folder) pairs.
func (s *Supervisor) ActiveKeys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.workers))
	for k := range s.workers {
		keys = append(keys, k)
	}
	return keys
}

// capabilityHasIdle reports whether caps advertises the IDLE
// extension (RFC 2177), queried once per worker before the first
// IDLE entry (spec.md §4.7 step 2).
func capabilityHasIdle(caps imap.CapSet) bool {
	return caps.Has(imap.CapIdle)
}
