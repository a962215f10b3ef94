package connector_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"ascbridge/internal/pipe"
	"ascbridge/internal/wire"
)

// blockingTransport reads from a channel fed by the test and unblocks when
// disconnected.
type blockingTransport struct {
	lines    chan []string
	closed   chan struct{}
	once     sync.Once
	mu       sync.Mutex
	written  []string
	writeErr error
}

func newBlockingTransport() *blockingTransport {
	return &blockingTransport{lines: make(chan []string, 16), closed: make(chan struct{})}
}

func (b *blockingTransport) Read() ([]string, error) {
	select {
	case batch := <-b.lines:
		return batch, nil
	case <-b.closed:
		return nil, fmt.Errorf("%w: closed", pipe.ErrBrokenChannel)
	}
}

func (b *blockingTransport) Write(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.written = append(b.written, text)
	return nil
}

func (b *blockingTransport) Disconnect() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func (b *blockingTransport) Written() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.written...)
}

// fakeOpener hands out a fresh transport pair per open.
type fakeOpener struct {
	mu       sync.Mutex
	opens    int
	inbound  []*blockingTransport
	outbound []*blockingTransport
	failErr  error
	onOpen   func(dir pipe.Direction, t *blockingTransport)
}

func (o *fakeOpener) Open(_ context.Context, _ string, dir pipe.Direction) (pipe.Transport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failErr != nil {
		return nil, o.failErr
	}
	o.opens++
	t := newBlockingTransport()
	if dir == pipe.Inbound {
		o.inbound = append(o.inbound, t)
	} else {
		o.outbound = append(o.outbound, t)
	}
	if o.onOpen != nil {
		o.onOpen(dir, t)
	}
	return t, nil
}

func (o *fakeOpener) last(dir pipe.Direction) *blockingTransport {
	o.mu.Lock()
	defer o.mu.Unlock()
	if dir == pipe.Inbound {
		return o.inbound[len(o.inbound)-1]
	}
	return o.outbound[len(o.outbound)-1]
}

func (o *fakeOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

type countingProcess struct {
	starts atomic.Int32
	stops  atomic.Int32
	err    error
}

func (p *countingProcess) Start(context.Context) error {
	if p.err != nil {
		return p.err
	}
	p.starts.Add(1)
	return nil
}

func (p *countingProcess) Stop() error {
	p.stops.Add(1)
	return nil
}

type recordingSink struct {
	answers chan wire.Answer
}

func newRecordingSink() *recordingSink {
	return &recordingSink{answers: make(chan wire.Answer, 16)}
}

func (r *recordingSink) Deliver(answer wire.Answer) {
	r.answers <- answer
}

type recordingObserver struct {
	mu       sync.Mutex
	sent     []string
	received []string
}

func (r *recordingObserver) RequestSent(_ string, key string) {
	r.mu.Lock()
	r.sent = append(r.sent, key)
	r.mu.Unlock()
}

func (r *recordingObserver) AnswerReceived(_ string, answer wire.Answer) {
	r.mu.Lock()
	r.received = append(r.received, answer.Key)
	r.mu.Unlock()
}

func (r *recordingObserver) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent), len(r.received)
}
