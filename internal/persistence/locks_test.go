package persistence

import (
	"sync"
	"testing"
	"time"
)

func TestResourceLocks_MutualExclusionPerResource(t *testing.T) {
	locks := NewResourceLocks()

	var inSection int
	var max int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire("instrument-1")
			defer release()

			mu.Lock()
			inSection++
			if inSection > max {
				max = inSection
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inSection--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Fatalf("expected at most one holder of the exclusive section, saw %d", max)
	}
}

func TestResourceLocks_IndependentResourcesDoNotBlock(t *testing.T) {
	locks := NewResourceLocks()

	releaseA := locks.Acquire("instrument-a")
	defer releaseA()

	acquired := make(chan struct{})
	go func() {
		release := locks.Acquire("instrument-b")
		release()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition on an independent resource blocked")
	}
}

func TestResourceLocks_OrderedMultiAcquire(t *testing.T) {
	locks := NewResourceLocks()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			release := locks.Acquire("b", "a")
			release()
		}
	}()

	for i := 0; i < 200; i++ {
		release := locks.Acquire("a", "b", "a")
		release()
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("opposing acquisition orders deadlocked")
	}
}
