package services

import (
	"sync"
	"testing"
)

func TestKeyLockRejectsReentry(t *testing.T) {
	l := NewKeyLock()

	if !l.TryLock("booking:a") {
		t.Fatal("first TryLock should succeed")
	}
	if l.TryLock("booking:a") {
		t.Fatal("second TryLock on the same key should fail")
	}
	if !l.TryLock("booking:b") {
		t.Fatal("TryLock on a different key should succeed")
	}

	l.Unlock("booking:a")
	if !l.TryLock("booking:a") {
		t.Fatal("TryLock after Unlock should succeed")
	}
}

func TestKeyLockUnderContention(t *testing.T) {
	l := NewKeyLock()

	const goroutines = 50
	var wg sync.WaitGroup
	acquired := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryLock("contested") {
				acquired <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(acquired)

	n := 0
	for range acquired {
		n++
	}
	if n != 1 {
		t.Fatalf("exactly one goroutine should win the key, got %d", n)
	}
}
