package audio

import (
	"context"
	"time"
)

// DefaultGap is the silence left between consecutive utterances of a
// [Queue] when no gap is configured with [WithGap].
const DefaultGap = 300 * time.Millisecond

var _ Sink = (*Queue)(nil)

// QueueOption configures a [Queue].
type QueueOption func(*Queue)

// WithGap sets the minimum silence between the end of one utterance and the
// start of the next. Zero disables it.
func WithGap(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d >= 0 {
			q.gap = d
		}
	}
}

// Queue is a [Sink] that plays utterances one at a time, in the order Play
// was called, on an underlying sink. Pressing Play twice therefore queues the
// sentence instead of overlapping it.
//
// Queue is safe for concurrent use.
type Queue struct {
	sink Sink
	gap  time.Duration

	// turn holds a single token; the goroutine holding it plays. Waiting
	// receivers are served in arrival order.
	turn chan struct{}

	// last is when the previous utterance ended. Only the token holder
	// touches it.
	last time.Time
}

// NewQueue returns a [Queue] playing on sink.
func NewQueue(sink Sink, opts ...QueueOption) *Queue {
	q := &Queue{
		sink: sink,
		gap:  DefaultGap,
		turn: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(q)
	}
	q.turn <- struct{}{}
	return q
}

// Play waits for earlier utterances to finish, then plays pcm. If ctx ends
// while waiting, pcm is drained and ctx.Err is returned.
func (q *Queue) Play(ctx context.Context, pcm <-chan []byte, f Format) error {
	select {
	case <-q.turn:
	case <-ctx.Done():
		Drain(pcm)
		return ctx.Err()
	}
	defer func() {
		q.last = time.Now()
		q.turn <- struct{}{}
	}()

	if !q.last.IsZero() {
		if wait := q.gap - time.Since(q.last); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				Drain(pcm)
				return ctx.Err()
			}
		}
	}
	return q.sink.Play(ctx, pcm, f)
}
