//go:build !windows

package connector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ascbridge/internal/channel"
	"ascbridge/internal/connector"
	"ascbridge/internal/imitator"
	"ascbridge/internal/lockedqueue"
	"ascbridge/internal/logging"
	"ascbridge/internal/pipe"
	"ascbridge/internal/scope"
	"ascbridge/internal/wire"
)

type countingImitator struct {
	*imitator.Imitator
	starts int
}

func (c *countingImitator) Start(ctx context.Context) error {
	c.starts++
	return c.Imitator.Start(ctx)
}

func newFIFOConnector(t *testing.T) (*connector.Connector, *countingImitator, *recordingSink) {
	t.Helper()
	dir := t.TempDir()
	names := channel.Names{Inbound: "asc_rx", Outbound: "asc_tx"}
	peer := &countingImitator{Imitator: imitator.New(imitator.Options{
		Names:   names,
		Opener:  pipe.NewOpener(pipe.Options{Dir: dir, Role: pipe.RolePeer, Logger: logging.NewNop()}),
		Samples: 4,
		Logger:  logging.NewNop(),
	})}
	sink := newRecordingSink()
	conn := connector.New(connector.Options{
		Names:       names,
		Opener:      pipe.NewOpener(pipe.Options{Dir: dir, Role: pipe.RoleConnector, Logger: logging.NewNop()}),
		Process:     peer,
		Validate:    connector.AcceptAll,
		Sink:        sink,
		OpenTimeout: 5 * time.Second,
		Logger:      logging.NewNop(),
	})
	t.Cleanup(func() { _ = conn.CloseConnection() })
	return conn, peer, sink
}

func TestFIFOSetupAnswerReachesSink(t *testing.T) {
	conn, _, sink := newFIFOConnector(t)
	if err := conn.CreateConnection(context.Background()); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if conn.Queue().Locked() {
		t.Fatal("queue must unlock after connect")
	}

	req := wire.Request{
		Type:      "Scope",
		Name:      "n1",
		Method:    "setup",
		Arguments: map[string]any{"Values": []any{"s1"}},
	}
	key, err := conn.MakeRequest(req)
	if err != nil {
		t.Fatalf("MakeRequest: %v", err)
	}

	select {
	case answer := <-sink.answers:
		if answer.Key != key {
			t.Fatalf("answer key %s does not match request %s", answer.Key, key)
		}
		if answer.Request.Type != "Scope" || answer.Request.Name != "n1" || answer.Request.Method != "setup" {
			t.Fatalf("unexpected request %+v", answer.Request)
		}
		var setup scope.SetupAnswer
		if err := answer.Decode(&setup); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if setup.Value == nil || !*setup.Value {
			t.Fatalf("expected {\"value\": true}, got %s", answer.Value)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no answer from imitator")
	}
}

func TestFIFOCreateWhileConnectedLaunchesOnePeer(t *testing.T) {
	conn, peer, _ := newFIFOConnector(t)
	ctx := context.Background()
	if err := conn.CreateConnection(ctx); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if err := conn.CreateConnection(ctx); err != nil {
		t.Fatalf("second CreateConnection: %v", err)
	}
	if peer.starts != 1 {
		t.Fatalf("expected a single peer launch, got %d", peer.starts)
	}
}

func TestFIFOPeerExitDisconnects(t *testing.T) {
	conn, peer, _ := newFIFOConnector(t)
	if err := conn.CreateConnection(context.Background()); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if err := peer.Imitator.Stop(); err != nil {
		t.Fatalf("imitator Stop: %v", err)
	}
	waitFor(t, "disconnect after peer exit", func() bool { return !conn.IsConnected() })
	if _, err := conn.MakeRequest(wire.Request{Type: "Scope", Name: "n1", Method: "reset"}); !errors.Is(err, lockedqueue.ErrQueueLocked) {
		t.Fatalf("expected ErrQueueLocked, got %v", err)
	}
}

func TestFIFOReconnectAfterClose(t *testing.T) {
	conn, _, sink := newFIFOConnector(t)
	ctx := context.Background()
	for round := range 2 {
		if err := conn.CreateConnection(ctx); err != nil {
			t.Fatalf("round %d CreateConnection: %v", round, err)
		}
		req, _ := scope.Reset("n1")
		if _, err := conn.MakeRequest(req); err != nil {
			t.Fatalf("round %d MakeRequest: %v", round, err)
		}
		select {
		case answer := <-sink.answers:
			if !answer.IsNull() {
				t.Fatalf("round %d: expected null reset answer, got %s", round, answer.Value)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("round %d: no answer", round)
		}
		if err := conn.CloseConnection(); err != nil {
			t.Fatalf("round %d CloseConnection: %v", round, err)
		}
	}
}
