package app

import (
	"sync"
	"testing"
)

func TestFormLocks_ReleasesEntries(t *testing.T) {
	l := newFormLocks()
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("f1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if n := l.len(); n != 0 {
		t.Errorf("locks still held = %d, want 0", n)
	}
}
