package session

import (
	"testing"
	"time"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry(&fakeService{}, 10, time.Hour)

	id, ctl := r.Create()
	if id == "" || ctl == nil {
		t.Fatal("expected id and controller")
	}

	got, ok := r.Get(id)
	if !ok || got != ctl {
		t.Error("Get did not return the created controller")
	}
	if _, ok := r.Get("unknown"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestRegistryCapEviction(t *testing.T) {
	r := NewRegistry(&fakeService{}, 3, time.Hour)

	var ids []string
	for i := 0; i < 5; i++ {
		id, _ := r.Create()
		ids = append(ids, id)
	}

	if r.Len() > 3 {
		t.Errorf("registry over capacity: %d", r.Len())
	}
	// The newest session always survives.
	if _, ok := r.Get(ids[len(ids)-1]); !ok {
		t.Error("newest session was evicted")
	}
}

func TestRegistryUncapped(t *testing.T) {
	// A cap of zero or less means uncapped; Create must not spin
	// looking for an entry to evict.
	for _, max := range []int{0, -1} {
		r := NewRegistry(&fakeService{}, max, time.Hour)

		done := make(chan string, 1)
		go func() {
			id, _ := r.Create()
			done <- id
		}()

		select {
		case id := <-done:
			if _, ok := r.Get(id); !ok {
				t.Errorf("max=%d: created session not retrievable", max)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("max=%d: Create did not return", max)
		}

		r.Create()
		if r.Len() != 2 {
			t.Errorf("max=%d: Len() = %d, want 2", max, r.Len())
		}
	}
}

func TestRegistryTTLEviction(t *testing.T) {
	r := NewRegistry(&fakeService{}, 10, time.Millisecond)

	old, _ := r.Create()
	time.Sleep(5 * time.Millisecond)
	r.Create() // triggers eviction of expired entries

	if _, ok := r.Get(old); ok {
		t.Error("expired session still present")
	}
}
