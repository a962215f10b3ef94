package daemon_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ascbridge/internal/config"
	"ascbridge/internal/connector"
	"ascbridge/internal/daemon"
	"ascbridge/internal/journal"
	"ascbridge/internal/lockedqueue"
	"ascbridge/internal/logging"
	"ascbridge/internal/scope"
	"ascbridge/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	opts, err := daemon.ConnectorOptions(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("ConnectorOptions: %v", err)
	}
	var store *journal.Store
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			t.Fatalf("journal.Open: %v", err)
		}
	}
	d, err := daemon.New(cfg, connector.New(opts), store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.StartedAt.IsZero() {
		t.Fatal("expected start time to be recorded")
	}
	if status.Connector.State != connector.StateDisconnected {
		t.Fatalf("expected no auto-connect, got %s", status.Connector.State)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceIsLockedOut(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestSendWhileDisconnectedFails(t *testing.T) {
	d := newDaemon(t, testsupport.NewConfig(t))
	req, err := scope.Request("n1")
	if err != nil {
		t.Fatalf("scope.Request: %v", err)
	}
	_, err = d.Send(context.Background(), req, 0)
	if !errors.Is(err, lockedqueue.ErrQueueLocked) {
		t.Fatalf("expected ErrQueueLocked, got %v", err)
	}
	if got := d.Status().Waiting; got != 0 {
		t.Fatalf("expected waiter to be released, got %d", got)
	}
}

func TestHistoryWithoutJournal(t *testing.T) {
	d := newDaemon(t, testsupport.NewConfig(t, testsupport.WithoutJournal()))
	if _, err := d.History(context.Background(), 10); !errors.Is(err, daemon.ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}
}

func TestConnectorOptionsRejectsUnknownMode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Peer.Mode = "telepathy"
	if _, err := daemon.ConnectorOptions(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected unknown peer mode to fail")
	}
}

func TestConnectorOptionsProcessModeNeedsExecutable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPeerExecutable(" "))
	if _, err := daemon.ConnectorOptions(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected empty executable to fail")
	}
}
