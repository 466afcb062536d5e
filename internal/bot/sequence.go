package bot

import (
	"context"
	"log"
	"sync"
)

// sequencer runs queued functions one at a time per key while different
// keys proceed independently, preserving enqueue order within a key. The
// session table relies on one chat's updates never overlapping; the
// sequencer restores that guarantee when the transport hands us updates
// faster than we handle them.
type sequencer struct {
	ctx    context.Context
	mu     sync.Mutex
	queues map[int64]chan func()
}

func newSequencer(ctx context.Context) *sequencer {
	return &sequencer{ctx: ctx, queues: make(map[int64]chan func())}
}

// Do enqueues fn for key. A full queue drops the work rather than block
// the caller's poll loop.
func (s *sequencer) Do(key int64, fn func()) {
	s.mu.Lock()
	q, ok := s.queues[key]
	if !ok {
		q = make(chan func(), 64)
		s.queues[key] = q
		go s.drain(q)
	}
	s.mu.Unlock()

	select {
	case q <- fn:
	default:
		log.Printf("[Bot] queue for chat %d is full, dropping update", key)
	}
}

func (s *sequencer) drain(q chan func()) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-q:
			fn()
		}
	}
}
