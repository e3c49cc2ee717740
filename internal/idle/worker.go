package idle

import (
	"context"
	"log/slog"
	"time"

	"github.com/colimail/colimail-go/internal/imapsession"
)

// worker is one supervised per-(account, folder) IDLE loop (spec.md
// §4.7). It owns exactly one ImapSession for its lifetime, redialing
// only after a socket/protocol error.
type worker struct {
	key    Key
	dial   Dialer
	cancel context.CancelFunc
	queue  chan<- Notification
	logger *slog.Logger

	existsPrev uint32
}

// run drives the worker's steps 1-5 until ctx is canceled or the
// server lacks IDLE (permanent termination, no reconnection loop).
func (w *worker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		terminate, err := w.runOnce(ctx)
		if terminate {
			w.logger.Info("IDLE not supported by server, worker terminating permanently")
			return
		}
		if err != nil {
			w.emit(Notification{Kind: ConnectionLost})
			w.logger.Warn("idle session ended, reconnecting", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectBackoff):
			}
		}
	}
}

// runOnce connects, selects, verifies IDLE capability, and idles in a
// loop (re-entering after each 29-minute voluntary exit) until an
// error occurs or ctx is canceled. terminate is true only when the
// server lacks the IDLE capability.
func (w *worker) runOnce(ctx context.Context) (terminate bool, err error) {
	sess := w.dial()
	defer sess.Close()

	sess.SetEventHandler(func(ev imapsession.IdleEvent) {
		w.handleEvent(ev)
	})

	if err := sess.Connect(ctx); err != nil {
		return false, err
	}
	state, err := sess.Select(ctx, w.key.Folder)
	if err != nil {
		return false, err
	}
	w.existsPrev = state.Exists

	caps, err := sess.Capabilities(ctx)
	if err != nil {
		return false, err
	}
	if !capabilityHasIdle(caps) {
		w.emit(Notification{Kind: ConnectionLost})
		return true, nil
	}

	for {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err := sess.Idle(ctx); err != nil {
			return false, err
		}
	}
}

// handleEvent maps one unsolicited response to a queued Notification
// per spec.md §4.7 step 4. EXISTS increases exists_prev and is
// compared against the prior snapshot to compute the delta; EXPUNGE
// and FETCH are forwarded as-is.
func (w *worker) handleEvent(ev imapsession.IdleEvent) {
	switch ev.Kind {
	case imapsession.IdleNewMessages:
		if ev.NumExists > w.existsPrev {
			delta := ev.NumExists - w.existsPrev
			w.existsPrev = ev.NumExists
			w.emit(Notification{Kind: NewMessages, Count: delta})
		}
	case imapsession.IdleExpunge:
		w.emit(Notification{Kind: Expunge, SeqNum: ev.SeqNum})
	case imapsession.IdleFlagsChanged:
		w.emit(Notification{Kind: FlagsChanged, SeqNum: ev.SeqNum})
	}
}

// emit suppresses notifications for non-inbox folders at source
// (spec.md §4.7) before enqueueing on the supervisor's shared FIFO.
func (w *worker) emit(n Notification) {
	if !isInbox(w.key.Folder) {
		return
	}
	n.AccountID = w.key.AccountID
	n.Folder = w.key.Folder
	select {
	case w.queue <- n:
	default:
		w.logger.Warn("notification queue full, dropping event", "kind", n.Kind)
	}
}
