package app

import "sync"

// formLocks hands out one mutex per form id. Entries are dropped once no
// goroutine holds or waits for them.
type formLocks struct {
	mu    sync.Mutex
	locks map[string]*formLock
}

type formLock struct {
	sync.Mutex
	refs int
}

func newFormLocks() *formLocks {
	return &formLocks{locks: make(map[string]*formLock)}
}

// lock blocks until the form's mutex is held and returns its release func.
func (l *formLocks) lock(id string) func() {
	l.mu.Lock()
	fl, ok := l.locks[id]
	if !ok {
		fl = &formLock{}
		l.locks[id] = fl
	}
	fl.refs++
	l.mu.Unlock()

	fl.Lock()
	return func() {
		fl.Unlock()
		l.mu.Lock()
		fl.refs--
		if fl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *formLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
