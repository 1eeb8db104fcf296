// Package speech plays interviewer replies through a text-to-speech engine,
// one utterance at a time.
package speech

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

var (
	ErrQueueClosed = errors.New("speech queue closed")
	ErrQueueFull   = errors.New("speech queue full")
)

// Speaker renders text as audio and returns once playback is done.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Queue owns pending utterances and a single worker that speaks them in order.
type Queue struct {
	speaker Speaker
	items   chan string

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue starts the worker. size bounds the number of pending utterances.
func NewQueue(speaker Speaker, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		speaker: speaker,
		items:   make(chan string, size),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue adds text to the back of the queue. Blank text is ignored.
func (q *Queue) Enqueue(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.items <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting text, waits for pending utterances to finish or ctx to
// expire, then stops the worker.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for text := range q.items {
		if q.ctx.Err() != nil {
			continue
		}
		if err := q.speaker.Speak(q.ctx, text); err != nil {
			log.Printf("⚠️ error speaking text chunk: %v", err)
		}
	}
}
