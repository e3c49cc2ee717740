package structure

import (
	"log/slog"
	"testing"

	"github.com/colimail/colimail-go/internal/mailstore"
)

func TestNewWorker_DefaultsLoggerWhenNil(t *testing.T) {
	w := NewWorker(&mailstore.Store{}, nil)
	if w.logger == nil {
		t.Fatal("NewWorker() with nil logger should default to slog.Default()")
	}
}

func TestNewWorker_KeepsProvidedLogger(t *testing.T) {
	l := slog.Default()
	w := NewWorker(&mailstore.Store{}, l)
	if w.logger != l {
		t.Error("NewWorker() should keep the logger passed in")
	}
}

func TestBatchConstants_MatchSpecifiedShape(t *testing.T) {
	if batchSize != 5 {
		t.Errorf("batchSize = %d, want 5", batchSize)
	}
	if reconnectEvery != 100 {
		t.Errorf("reconnectEvery = %d, want 100", reconnectEvery)
	}
}
