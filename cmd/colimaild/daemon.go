package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/colimail/colimail-go/internal/config"
	"github.com/colimail/colimail-go/internal/idle"
	"github.com/colimail/colimail-go/internal/imapsession"
	"github.com/colimail/colimail-go/internal/mailstore"
	"github.com/colimail/colimail-go/internal/secret"
	"github.com/colimail/colimail-go/internal/structure"
	colisync "github.com/colimail/colimail-go/internal/sync"
)

// daemon holds the wiring shared across every configured account:
// one MailStore, one SyncEngine, one StructureWorker, one
// IdleSupervisor (spec.md §3's data-flow diagram — these are process-
// wide singletons, never per-account).
type daemon struct {
	store    *mailstore.Store
	engine   *colisync.Engine
	worker   *structure.Worker
	sup      *idle.Supervisor
	logger   *slog.Logger
	resolver secret.Resolver

	mu      sync.Mutex
	dialers map[int64]func() *imapsession.Session
}

// startAccount resolves acct's credentials once, registers it in the
// MailStore, runs an initial INBOX sync and structure pass, and
// starts its IDLE worker.
func (d *daemon) startAccount(acct config.AccountConfig) error {
	auth, err := resolveAuth(acct, d.resolver)
	if err != nil {
		return err
	}

	secretRef := acct.PasswordRef
	if acct.AuthKind == "bearer" {
		secretRef = acct.TokenRef
	}
	row, err := d.store.UpsertAccount(mailstore.Account{
		Address:   acct.Address,
		IMAPHost:  acct.IMAPHost,
		IMAPPort:  acct.IMAPPort,
		SMTPHost:  acct.SMTPHost,
		SMTPPort:  acct.SMTPPort,
		AuthKind:  mailstore.AuthKind(acct.AuthKind),
		SecretRef: secretRef,
	})
	if err != nil {
		return err
	}

	dial := d.imapDialer(acct, auth)
	const folder = "INBOX"

	d.mu.Lock()
	if d.dialers == nil {
		d.dialers = make(map[int64]func() *imapsession.Session)
	}
	d.dialers[row] = dial
	d.mu.Unlock()

	go d.syncAndEnrich(context.Background(), acct.Name, row, folder)

	d.sup.StartAllForAccount(row, []string{folder}, idle.Dialer(dial))
	return nil
}

// syncAndEnrich runs one SyncEngine pass followed by one
// StructureWorker pass for (accountID, folder), logging (rather than
// propagating) failures — both the initial pass at startup and every
// pass triggered by an IDLE notification go through this same path.
func (d *daemon) syncAndEnrich(ctx context.Context, accountName string, accountID int64, folder string) {
	d.mu.Lock()
	dial := d.dialers[accountID]
	d.mu.Unlock()
	if dial == nil {
		return
	}

	if _, err := d.engine.Sync(ctx, accountID, folder, colisync.Dialer(dial)); err != nil {
		d.logger.Warn("sync failed", "account", accountName, "folder", folder, "error", err)
		return
	}
	if err := d.worker.Run(ctx, accountID, folder, structure.Dialer(dial)); err != nil {
		d.logger.Warn("structure pass failed", "account", accountName, "folder", folder, "error", err)
	}
}

// imapDialer captures acct's connection parameters and pre-resolved
// auth into a Dialer usable by SyncEngine, StructureWorker, and
// IdleSupervisor alike — each builds its own unconnected Session and
// owns it for exactly one invocation or one IDLE worker lifetime.
func (d *daemon) imapDialer(acct config.AccountConfig, auth imapsession.AuthMethod) func() *imapsession.Session {
	return func() *imapsession.Session {
		return imapsession.New(imapsession.Config{
			Host: acct.IMAPHost,
			Port: acct.IMAPPort,
			TLS:  imapTLS(acct.IMAPPort),
		}, auth, d.logger.With("account", acct.Name))
	}
}

// drainNotifications consumes IdleSupervisor's paced notification
// channel and triggers a fresh sync + structure pass for the
// notified (account, folder) — the observer spec.md §5 describes:
// "IDLE workers never write MailStore directly... the observer
// triggers SyncEngine."
func (d *daemon) drainNotifications(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-d.sup.Notifications():
			if !ok {
				return
			}
			d.handleNotification(ctx, n)
		}
	}
}

func (d *daemon) handleNotification(ctx context.Context, n idle.Notification) {
	d.logger.Info("idle notification", "account_id", n.AccountID, "folder", n.Folder, "kind", n.Kind)
	d.syncAndEnrich(ctx, "", n.AccountID, n.Folder)
}
