// ABOUTME: Thread-safe, size-bounded attempt counter with a fixed time window
// ABOUTME: Used by the login form to slow down password guessing per email and address

package throttle

import (
	"container/list"
	"sync"
	"time"
)

// entry stores the attempt count for a key and its position in the LRU list.
type entry struct {
	first   time.Time // start of the current window
	count   int
	element *list.Element
}

// Limiter counts attempts per key. Acquire reserves an attempt and refuses
// once a key holds maxFailures reservations within window, until the window
// that began with its first attempt has passed. A successful attempt is
// cleared with Reset; one that should not count is returned with Release.
// Tracked keys are capped at maxKeys; the least recently touched key is
// evicted first.
type Limiter struct {
	mu          sync.Mutex
	entries     map[string]*entry
	order       *list.List // keys, least recently touched at front
	window      time.Duration
	maxFailures int
	maxKeys     int
	now         func() time.Time
	done        chan struct{}
	closed      bool
}

// New creates a Limiter and starts its background cleanup goroutine.
func New(window time.Duration, maxFailures, maxKeys int) *Limiter {
	l := &Limiter{
		entries:     make(map[string]*entry),
		order:       list.New(),
		window:      window,
		maxFailures: maxFailures,
		maxKeys:     maxKeys,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Acquire reserves an attempt for key and reports whether it may proceed.
// The check and the count happen under one lock, so concurrent callers
// never get more than maxFailures attempts per window.
func (l *Limiter) Acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok {
		if l.expiredLocked(e) {
			e.first = now
			e.count = 0
		}
		l.order.MoveToBack(e.element)
		if e.count >= l.maxFailures {
			return false
		}
		e.count++
		return true
	}

	if l.maxFailures <= 0 {
		return false
	}
	if len(l.entries) >= l.maxKeys {
		l.evictOldest()
	}

	elem := l.order.PushBack(key)
	l.entries[key] = &entry{first: now, count: 1, element: elem}
	return true
}

// Release gives back an attempt reserved by Acquire that should not count
// against key, such as one that failed for reasons other than a bad password.
func (l *Limiter) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.count == 0 {
		return
	}
	e.count--
	if e.count == 0 {
		l.order.Remove(e.element)
		delete(l.entries, key)
	}
}

// Reset forgets key, typically after a successful attempt.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		l.order.Remove(e.element)
		delete(l.entries, key)
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) expiredLocked(e *entry) bool {
	return l.now().Sub(e.first) >= l.window
}

// evictOldest removes the least recently touched key. Must be called with mu held.
func (l *Limiter) evictOldest() {
	front := l.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	l.order.Remove(front)
	delete(l.entries, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.runCleanup()
		case <-l.done:
			return
		}
	}
}

// runCleanup removes every entry whose window has passed.
func (l *Limiter) runCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if l.expiredLocked(e) {
			l.order.Remove(e.element)
			delete(l.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		close(l.done)
		l.closed = true
	}
}
