package imapsession

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/colimail/colimail-go/internal/errs"
)

// Session is a single-account IMAP session: connect, authenticate,
// select, fetch, flag, copy/expunge, list, IDLE. Unlike MailStore it
// is never shared — each sync invocation, IDLE worker, and
// StructureWorker owns its own Session (spec.md §5).
type Session struct {
	cfg    Config
	auth   AuthMethod
	logger *slog.Logger

	// onEvent, when set via SetEventHandler before Connect, receives
	// unsolicited EXISTS/EXPUNGE/FETCH responses seen during Idle.
	// Sync and StructureWorker sessions never set it.
	onEvent func(IdleEvent)

	mu     sync.Mutex
	client *imapclient.Client
	caps   imap.CapSet
}

// New creates a Session for the given server and credentials. The
// connection is established lazily on first use, mirroring
// internal/email.Client's lazy-connect idiom.
func New(cfg Config, auth AuthMethod, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{cfg: cfg, auth: auth, logger: logger}
}

// Connect establishes the TLS connection and authenticates.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))

	var opts imapclient.Options
	if s.cfg.TLS {
		opts.TLSConfig = &tls.Config{ServerName: s.cfg.Host}
	}
	if s.onEvent != nil {
		opts.UnilateralDataHandler = s.unilateralHandler()
	}

	s.logger.Debug("connecting to IMAP server", "host", s.cfg.Host, "port", s.cfg.Port, "tls", s.cfg.TLS)

	var client *imapclient.Client
	var err error
	if s.cfg.TLS {
		client, err = imapclient.DialTLS(addr, &opts)
	} else {
		client, err = imapclient.DialInsecure(addr, &opts)
	}
	if err != nil {
		return &errs.ConnectionError{Op: "dial " + addr, Err: err}
	}

	if err := authenticate(client, s.auth); err != nil {
		_ = client.Close()
		return &errs.AuthError{Op: "authenticate", Err: err}
	}

	s.client = client
	s.logger.Info("IMAP connected", "host", s.cfg.Host)
	return nil
}

// ensureConnected verifies liveness with a NOOP and reconnects on
// failure. Caller must hold s.mu.
func (s *Session) ensureConnected(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Noop().Wait(); err == nil {
			return nil
		}
		s.logger.Debug("IMAP connection stale, reconnecting", "host", s.cfg.Host)
	}
	return s.connectLocked(ctx)
}

// Reconnect forces a fresh connection, used by the adaptive batcher
// and the structure worker after a Bye or tag mismatch.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

// Close drops the underlying socket without LOGOUT — per spec.md §5,
// cancellation does not wait for a clean logout.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// Logout is a best-effort clean shutdown.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Logout().Wait()
	_ = s.client.Close()
	s.client = nil
	return err
}

// Capabilities issues CAPABILITY and caches the result. Must be
// called before Idle, per spec.md §4.4.
func (s *Session) Capabilities(ctx context.Context) (imap.CapSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}
	caps, err := s.client.Capability().Wait()
	if err != nil {
		return nil, &errs.ProtocolError{Op: "capability", Err: err}
	}
	s.caps = caps
	return caps, nil
}

// Select chooses a mailbox and returns its EXISTS/RECENT/UIDVALIDITY.
func (s *Session) Select(ctx context.Context, folder string) (MailboxState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return MailboxState{}, err
	}
	return s.selectLocked(folder)
}

// selectLocked must be called with s.mu held and a live client.
func (s *Session) selectLocked(folder string) (MailboxState, error) {
	if folder == "" {
		folder = "INBOX"
	}
	data, err := s.client.Select(folder, nil).Wait()
	if err != nil {
		return MailboxState{}, &errs.ProtocolError{Op: "select " + folder, Err: err}
	}
	state := MailboxState{
		Exists:      data.NumMessages,
		Recent:      data.NumRecent,
		UIDValidity: data.UIDValidity,
	}
	return state, nil
}
