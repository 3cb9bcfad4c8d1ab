package idgen_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/artpar/formgate/adapters/idgen"
)

func TestUUID(t *testing.T) {
	g := idgen.UUID{}
	a, b := g.New(), g.New()

	if a == b {
		t.Error("UUIDs should be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("uuid.Parse(%q) error = %v", a, err)
	}
}

func TestSequential(t *testing.T) {
	g := idgen.NewSequential("fld_")

	for _, want := range []string{"fld_1", "fld_2", "fld_3"} {
		if got := g.New(); got != want {
			t.Errorf("New() = %q, want %q", got, want)
		}
	}

	g.Reset()
	if got := g.New(); got != "fld_1" {
		t.Errorf("after Reset: New() = %q, want fld_1", got)
	}
}

func TestSequential_Concurrent(t *testing.T) {
	g := idgen.NewSequential("")
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := g.New()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1000 {
		t.Errorf("unique ids = %d, want 1000", len(seen))
	}
}
