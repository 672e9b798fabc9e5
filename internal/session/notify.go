package session

import "sync"

// broadcaster fans state snapshots out to subscribers. Listeners run on the
// publishing goroutine, never under a session lock, and may be called
// concurrently; call State for the latest value.
type broadcaster[S any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(S)
}

func (b *broadcaster[S]) subscribe(fn func(S)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(S))
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster[S]) publish(s S) {
	b.mu.Lock()
	fns := make([]func(S), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Signal returns a listener that performs a non-blocking send on a buffered
// channel of capacity one, plus the channel. Bursts of changes collapse into
// a single pending signal.
func Signal[S any]() (func(S), <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func(S) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}
