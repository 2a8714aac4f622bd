package audit

import (
	"log/slog"
	"sync/atomic"
	"time"
)

const defaultInboxSize = 256

// Publisher accepts audit events from domain code without ever blocking it.
// Events go onto a buffered inbox drained by a Worker; when the inbox is full
// the event is dropped and counted. The audit trail is an observability aid,
// not a ledger the mutation path depends on.
type Publisher struct {
	inbox   chan Event
	dropped atomic.Int64
	logger  *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, defaultInboxSize),
		logger: logger,
	}
}

// Emit queues the event, stamping the time if absent. Never blocks.
func (p *Publisher) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		n := p.dropped.Add(1)
		p.logger.Warn("audit inbox full, dropping event",
			"action", event.Action, "dropped_total", n)
	}
}

// Inbox is the channel a Worker drains.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Dropped returns the number of events discarded because the inbox was full.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }
