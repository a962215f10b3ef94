package channel_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ascbridge/internal/channel"
	"ascbridge/internal/logging"
	"ascbridge/internal/pipe"
)

type fakeTransport struct {
	mu           sync.Mutex
	written      []string
	reads        [][]string
	writeErr     error
	readErr      error
	disconnected int
}

func (f *fakeTransport) Read() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.reads) == 0 {
		return nil, fmt.Errorf("%w: no more data", pipe.ErrBrokenChannel)
	}
	batch := f.reads[0]
	f.reads = f.reads[1:]
	return batch, nil
}

func (f *fakeTransport) Write(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, text)
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected++
	return nil
}

type fakeOpener struct {
	transports map[string]*fakeTransport
	order      []string
	failOn     string
}

func (o *fakeOpener) Open(_ context.Context, name string, _ pipe.Direction) (pipe.Transport, error) {
	o.order = append(o.order, name)
	if name == o.failOn {
		return nil, errors.New("open refused")
	}
	return o.transports[name], nil
}

func newFixture() (*fakeOpener, *fakeTransport, *fakeTransport) {
	rx := &fakeTransport{}
	tx := &fakeTransport{}
	return &fakeOpener{transports: map[string]*fakeTransport{"asc_rx": rx, "asc_tx": tx}}, rx, tx
}

var names = channel.Names{Inbound: "asc_rx", Outbound: "asc_tx"}

func TestOpenOrderDependsOnRole(t *testing.T) {
	opener, _, _ := newFixture()
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opener.order[0] != "asc_tx" || opener.order[1] != "asc_rx" {
		t.Fatalf("connector must open outbound first, got %v", opener.order)
	}
	if !ch.IsConnected() {
		t.Fatal("expected connected channel")
	}

	peerOpener, _, _ := newFixture()
	peer := channel.New(peerOpener, names.Reversed(), pipe.RolePeer, logging.NewNop())
	if err := peer.Open(context.Background()); err != nil {
		t.Fatalf("peer Open: %v", err)
	}
	if peerOpener.order[0] != "asc_tx" || peerOpener.order[1] != "asc_rx" {
		t.Fatalf("peer must open its inbound (asc_tx) first, got %v", peerOpener.order)
	}
}

func TestOpenFailureReleasesFirstTransport(t *testing.T) {
	opener, _, tx := newFixture()
	opener.failOn = "asc_rx"
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	if err := ch.Open(context.Background()); err == nil {
		t.Fatal("expected open error")
	}
	if ch.IsConnected() {
		t.Fatal("channel must stay closed after failed open")
	}
	if tx.disconnected != 1 {
		t.Fatalf("expected outbound transport released, got %d disconnects", tx.disconnected)
	}
}

func TestSendIsNoopWhileClosed(t *testing.T) {
	opener, _, tx := newFixture()
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	ch.Send(context.Background(), "ignored")
	if len(tx.written) != 0 {
		t.Fatalf("unexpected write while closed: %v", tx.written)
	}
	if lines := ch.Receive(context.Background()); lines != nil {
		t.Fatalf("unexpected receive while closed: %v", lines)
	}
}

func TestSendAndReceive(t *testing.T) {
	opener, rx, tx := newFixture()
	rx.reads = [][]string{{"a", "b"}}
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	ch.Send(context.Background(), "hello")
	if len(tx.written) != 1 || tx.written[0] != "hello" {
		t.Fatalf("unexpected writes %v", tx.written)
	}
	lines := ch.Receive(context.Background())
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestBrokenWriteClosesBothDirections(t *testing.T) {
	opener, rx, tx := newFixture()
	tx.writeErr = fmt.Errorf("%w: epipe", pipe.ErrBrokenChannel)
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	ch.Send(context.Background(), "doomed")
	if ch.IsConnected() {
		t.Fatal("expected channel closed after broken write")
	}
	if rx.disconnected != 1 || tx.disconnected != 1 {
		t.Fatalf("expected both transports disconnected, got rx=%d tx=%d", rx.disconnected, tx.disconnected)
	}
}

func TestBrokenReadClosesChannel(t *testing.T) {
	opener, rx, _ := newFixture()
	rx.readErr = fmt.Errorf("%w: eof", pipe.ErrBrokenChannel)
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if lines := ch.Receive(context.Background()); lines != nil {
		t.Fatalf("expected nil lines, got %v", lines)
	}
	if ch.IsConnected() {
		t.Fatal("expected channel closed after broken read")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	opener, rx, tx := newFixture()
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	for range 2 {
		if err := ch.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if ch.IsConnected() {
			t.Fatal("expected disconnected after Close")
		}
	}
	if rx.disconnected != 1 || tx.disconnected != 1 {
		t.Fatalf("transports disconnected more than once: rx=%d tx=%d", rx.disconnected, tx.disconnected)
	}
}

func TestDoneContextDoesNotReachReopenedTransports(t *testing.T) {
	opener, rx, tx := newFixture()
	rx.reads = [][]string{{"fresh"}}
	ch := channel.New(opener, names, pipe.RoleConnector, logging.NewNop())
	ended, cancel := context.WithCancel(context.Background())
	if err := ch.Open(ended); err != nil {
		t.Fatalf("Open: %v", err)
	}
	cancel()
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	ch.Send(ended, "stale")
	if len(tx.written) != 0 {
		t.Fatalf("ended caller wrote %v", tx.written)
	}
	if lines := ch.Receive(ended); lines != nil {
		t.Fatalf("ended caller read %v", lines)
	}
	if !ch.IsConnected() {
		t.Fatal("ended caller must not close the reopened channel")
	}
	if lines := ch.Receive(context.Background()); len(lines) != 1 || lines[0] != "fresh" {
		t.Fatalf("unexpected lines for live caller %v", lines)
	}
}
