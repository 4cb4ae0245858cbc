package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bestsellers/internal/cart"
)

// Sink is what a Forwarder publishes to. *Publisher satisfies it.
type Sink interface {
	Publish(ctx context.Context, key string, v any) error
}

// CartKey is the routing key of a cart change, e.g. "cart.line.added".
func CartKey(k cart.ChangeKind) string { return "cart." + string(k) }

// Forwarder hands cart changes to a Sink from its own goroutine so a slow
// broker never holds up the cart. Changes are published in the order they
// were observed; when the queue is full new changes are dropped.
type Forwarder struct {
	sink    Sink
	timeout time.Duration
	queue   chan cart.Change
	done    chan struct{}
	once    sync.Once
}

func NewForwarder(sink Sink, buffer int, timeout time.Duration) *Forwarder {
	if buffer <= 0 {
		buffer = 64
	}
	f := &Forwarder{
		sink:    sink,
		timeout: timeout,
		queue:   make(chan cart.Change, buffer),
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

// Observe is meant to be passed to cart.Engine.Subscribe.
func (f *Forwarder) Observe(c cart.Change) {
	select {
	case f.queue <- c:
	default:
		log.Warn().Str("kind", string(c.Kind)).Msg("event queue full, dropping cart change")
	}
}

func (f *Forwarder) run() {
	defer close(f.done)
	for c := range f.queue {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		if err := f.sink.Publish(ctx, CartKey(c.Kind), c); err != nil {
			log.Error().Err(err).Str("kind", string(c.Kind)).Msg("publish cart change")
		}
		cancel()
	}
}

// Close stops accepting changes and waits for the queued ones to be sent.
// Observe must not be called after Close.
func (f *Forwarder) Close() {
	f.once.Do(func() { close(f.queue) })
	<-f.done
}
