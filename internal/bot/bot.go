// Package bot runs the event loop that serializes chat events and timer
// jobs onto a single goroutine.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/journalbot/internal/chat"
	"github.com/julianstephens/journalbot/internal/logger"
)

// ErrUpdatesClosed is returned by Run when the transport stops delivering
// events while the bot is still meant to be running.
var ErrUpdatesClosed = errors.New("update stream closed")

// Handler consumes one event and returns the replies to send. It is only
// ever called from the loop goroutine.
type Handler interface {
	Handle(ctx context.Context, ev chat.Event) []chat.Reply
}

type Bot struct {
	transport chat.Transport
	handler   Handler
	jobs      chan func()
	done      chan struct{}
}

func New(transport chat.Transport, handler Handler) *Bot {
	return &Bot{
		transport: transport,
		handler:   handler,
		jobs:      make(chan func(), 16),
		done:      make(chan struct{}),
	}
}

// Post queues job to run on the loop. Jobs posted after Run returns are
// dropped.
func (b *Bot) Post(job func()) {
	select {
	case b.jobs <- job:
	case <-b.done:
	}
}

// Run processes events and jobs until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	defer close(b.done)

	events, err := b.transport.Updates(ctx)
	if err != nil {
		return fmt.Errorf("failed to start updates: %w", err)
	}
	logger.Info("bot started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("bot stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrUpdatesClosed
			}
			logger.Debug("event received", "kind", ev.Kind)
			b.deliver(ctx, b.handler.Handle(ctx, ev))
		case job := <-b.jobs:
			job()
		}
	}
}

func (b *Bot) deliver(ctx context.Context, replies []chat.Reply) {
	for _, r := range replies {
		if err := b.transport.Send(ctx, r); err != nil {
			logger.Error("failed to send reply", "transient", chat.IsTransient(err), "error", err)
		}
	}
}
