package imapsession

import (
	"context"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/colimail/colimail-go/internal/errs"
)

// IdleEventKind distinguishes the three unsolicited response shapes
// IdleSupervisor cares about (spec.md §4.7 step 4).
type IdleEventKind int

const (
	IdleNewMessages IdleEventKind = iota
	IdleExpunge
	IdleFlagsChanged
)

// IdleEvent is one unsolicited response observed while idling.
type IdleEvent struct {
	Kind      IdleEventKind
	NumExists uint32 // valid for IdleNewMessages: the new EXISTS count
	SeqNum    uint32 // valid for IdleExpunge/IdleFlagsChanged
}

// SetEventHandler registers the callback that receives unsolicited
// responses during Idle. Must be called before Connect — the
// underlying imapclient.Options.UnilateralDataHandler is wired at
// dial time and not mutable afterward.
func (s *Session) SetEventHandler(onEvent func(IdleEvent)) {
	s.onEvent = onEvent
}

// unilateralHandler adapts go-imap/v2's typed unsolicited-response
// callbacks to IdleEvent. EXISTS/EXPUNGE/FETCH map to the three kinds
// IdleSupervisor consumes; everything else is ignored per spec.md
// §4.7 step 4's "Others: ignore."
func (s *Session) unilateralHandler() *imapclient.UnilateralDataHandler {
	return &imapclient.UnilateralDataHandler{
		Mailbox: func(data *imapclient.UnilateralDataMailbox) {
			if data.NumMessages != nil {
				s.onEvent(IdleEvent{Kind: IdleNewMessages, NumExists: *data.NumMessages})
			}
		},
		Expunge: func(seqNum uint32) {
			s.onEvent(IdleEvent{Kind: IdleExpunge, SeqNum: seqNum})
		},
		Fetch: func(msg *imapclient.FetchMessageData) {
			s.onEvent(IdleEvent{Kind: IdleFlagsChanged, SeqNum: msg.SeqNum})
		},
	}
}

// idleTimeout is the in-protocol 29-minute voluntary-exit window
// (spec.md §4.7 step 3): the session exits IDLE and re-enters rather
// than relying on the server to keep a 30-minute-plus connection
// alive.
const idleTimeout = 29 * time.Minute

// Idle enters IMAP IDLE and blocks until idleTimeout elapses, ctx is
// canceled, or the connection fails. Unsolicited responses are
// delivered to the handler set by SetEventHandler as they arrive.
// Returns nil on a clean voluntary exit (caller should re-enter).
func (s *Session) Idle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnected(ctx); err != nil {
		return err
	}

	idleCmd, err := s.client.Idle()
	if err != nil {
		return &errs.ConnectionError{Op: "idle", Err: err}
	}

	timer := time.NewTimer(idleTimeout)
	defer timer.Stop()

	done := make(chan error, 1)
	go func() { done <- idleCmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return &errs.ConnectionError{Op: "idle wait", Err: err}
		}
		return nil
	case <-timer.C:
		if err := idleCmd.Close(); err != nil {
			return &errs.ConnectionError{Op: "idle close", Err: err}
		}
		return <-done
	case <-ctx.Done():
		_ = idleCmd.Close()
		<-done
		return ctx.Err()
	}
}
