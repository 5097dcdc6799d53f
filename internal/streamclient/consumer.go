package streamclient

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

var (
	ErrAlreadyStarted = errors.New("consumer already started")
	ErrUnexpectedEOF  = errors.New("stream ended before a terminal event")
)

const (
	inboxSize   = 64
	readBufSize = 4096
)

// Transport opens the raw event stream for a submission. Non-success
// responses are returned as errors and are never retried.
type Transport interface {
	Open(ctx context.Context, submissionID string) (io.ReadCloser, error)
}

// Consumer drives one generation stream through the state machine. All
// transport output enters through a single queue; Cancel takes effect at once
// and any events still queued are dropped.
type Consumer struct {
	transport Transport
	onChange  func(Snapshot)
	log       *logger.Logger

	mu     sync.Mutex
	m      *machine
	inbox  chan input
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConsumer returns an idle consumer. onChange, if set, receives a snapshot
// after every accepted transition or event.
func NewConsumer(transport Transport, onChange func(Snapshot), log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{
		transport: transport,
		onChange:  onChange,
		log:       log.With("component", "StreamConsumer"),
		m:         newMachine(),
		inbox:     make(chan input, inboxSize),
		done:      make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context, submissionID string) error {
	c.mu.Lock()
	if !c.m.apply(input{kind: inputStart}) {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	snap := c.m.snapshot()
	c.mu.Unlock()

	c.notify(snap)
	go c.loop(runCtx)
	go c.read(runCtx, submissionID)
	return nil
}

// Cancel aborts the transport. Safe to call in any state; before Start and
// after a terminal state it does nothing.
func (c *Consumer) Cancel() {
	c.mu.Lock()
	accepted := c.m.apply(input{kind: inputCancel})
	snap := c.m.snapshot()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if accepted {
		c.notify(snap)
	}
}

func (c *Consumer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.snapshot()
}

// Done is closed once the consumer reaches a terminal state after Start.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// Wait blocks until the consumer finishes or ctx ends.
func (c *Consumer) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-c.done:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

func (c *Consumer) loop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			accepted := c.m.apply(input{kind: inputCancel})
			snap := c.m.snapshot()
			c.mu.Unlock()
			if accepted {
				c.notify(snap)
			}
			return
		case in := <-c.inbox:
			c.mu.Lock()
			accepted := c.m.apply(in)
			snap := c.m.snapshot()
			c.mu.Unlock()
			if accepted {
				c.notify(snap)
			}
			if snap.State.Terminal() {
				c.cancel()
				return
			}
		}
	}
}

func (c *Consumer) read(ctx context.Context, submissionID string) {
	body, err := c.transport.Open(ctx, submissionID)
	if err != nil {
		c.post(ctx, input{kind: inputTransportError, err: err})
		return
	}
	defer body.Close()

	var dec Decoder
	buf := make([]byte, readBufSize)
	connected := false
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if !connected {
				connected = true
				if !c.post(ctx, input{kind: inputConnected}) {
					return
				}
			}
			for _, ev := range dec.Feed(buf[:n]) {
				if !c.post(ctx, input{kind: inputEvent, event: ev}) {
					return
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if dec.Pending() > 0 {
					c.log.Debug("Discarding incomplete trailing frame", "bytes", dec.Pending())
				}
				c.post(ctx, input{kind: inputEOF})
			} else {
				c.post(ctx, input{kind: inputTransportError, err: err})
			}
			return
		}
	}
}

func (c *Consumer) post(ctx context.Context, in input) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case c.inbox <- in:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Consumer) notify(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
