// Command colimaild is the colimail daemon: the composition root that
// wires MailStore, ImapSession, SyncEngine, StructureWorker, and
// IdleSupervisor into one running process per spec.md §3's data-flow
// description; the send pipeline is not constructed here. Grounded on
// cmd/thane/main.go's flag/config/signal-shutdown shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/colimail/colimail-go/internal/config"
	"github.com/colimail/colimail-go/internal/idle"
	"github.com/colimail/colimail-go/internal/imapsession"
	"github.com/colimail/colimail-go/internal/mailstore"
	"github.com/colimail/colimail-go/internal/secret"
	"github.com/colimail/colimail-go/internal/structure"
	"github.com/colimail/colimail-go/internal/sync"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfgPath, err := config.FindConfig(*configPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			logger.Error("invalid log_level in config", "error", err)
			os.Exit(1)
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: config.ReplaceLogLevelNames,
		}))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	store, err := mailstore.NewStore(cfg.DataDir + "/colimail.db")
	if err != nil {
		logger.Error("failed to open mailstore", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	resolver := secret.EnvResolver{}
	engine := sync.NewEngine(store, logger)
	structWorker := structure.NewWorker(store, logger)
	supervisor := idle.NewSupervisor(logger)

	d := &daemon{
		store:    store,
		engine:   engine,
		worker:   structWorker,
		sup:      supervisor,
		logger:   logger,
		resolver: resolver,
	}

	for _, acct := range cfg.Accounts {
		if err := d.startAccount(acct); err != nil {
			logger.Error("failed to start account", "account", acct.Name, "error", err)
			continue
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go d.drainNotifications(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	supervisor.StopAll()
	cancel()
	logger.Info("colimaild stopped")
}

// resolveAuth builds the imapsession.AuthMethod for acct by resolving
// its configured secret ref.
func resolveAuth(acct config.AccountConfig, resolver secret.Resolver) (imapsession.AuthMethod, error) {
	switch acct.AuthKind {
	case "bearer":
		token, err := resolver.Resolve(acct.TokenRef)
		if err != nil {
			return nil, fmt.Errorf("resolve token_ref for %q: %w", acct.Name, err)
		}
		return imapsession.BearerAuth{Email: acct.Address, Token: token}, nil
	default:
		password, err := resolver.Resolve(acct.PasswordRef)
		if err != nil {
			return nil, fmt.Errorf("resolve password_ref for %q: %w", acct.Name, err)
		}
		return imapsession.PasswordAuth{Username: acct.Address, Password: password}, nil
	}
}

// imapTLS defaults to TLS for every port except the plaintext
// convention 143, matching internal/email/config.go's original rule.
func imapTLS(port int) bool {
	return port != 143
}
