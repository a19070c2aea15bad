package engine

import "sync"

// taskLocks serializes units of work per task id. Requests against
// different tasks proceed in parallel; a second request for the same task
// blocks until the first unit commits or aborts.
type taskLocks struct {
	mu   sync.Mutex
	held map[int64]*taskLock
}

type taskLock struct {
	mu   sync.Mutex
	refs int
}

// acquire blocks until the task lock is held and returns the release func.
func (l *taskLocks) acquire(id int64) func() {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[int64]*taskLock)
	}
	entry, ok := l.held[id]
	if !ok {
		entry = &taskLock{}
		l.held[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
