package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voxpair/internal/app/session"
	"voxpair/internal/pkg/logx"
)

const (
	writerQueueSize = 512
	saveTimeout     = 5 * time.Second
)

// Writer saves messages on a background goroutine so the relay path never
// waits for the database.
type Writer struct {
	store Store
	queue chan session.Message

	mu     sync.Mutex
	closed bool

	done   chan struct{}
	logger zerolog.Logger
}

// NewWriter starts the background writer for store.
func NewWriter(store Store) *Writer {
	w := &Writer{
		store:  store,
		queue:  make(chan session.Message, writerQueueSize),
		done:   make(chan struct{}),
		logger: logx.Component("history"),
	}

	go w.run()

	return w
}

// Enqueue schedules msg for saving. It never blocks; a full queue drops the message.
func (w *Writer) Enqueue(msg session.Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}

	select {
	case w.queue <- msg:
		return true
	default:
		w.logger.Warn().Str("session_id", msg.SessionID).Str("message_id", msg.ID).Msg("History queue full, dropping message")
		return false
	}
}

func (w *Writer) run() {
	defer close(w.done)

	for msg := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := w.store.Save(ctx, msg); err != nil {
			w.logger.Error().Err(err).Str("session_id", msg.SessionID).Str("message_id", msg.ID).Msg("Failed to save translation message")
		}
		cancel()
	}
}

// Close stops accepting messages and waits until the queue drains or ctx ends.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
