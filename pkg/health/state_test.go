package health

import (
	"sync"
	"testing"
)

func TestState_StartsHealthy(t *testing.T) {
	if !New().IsHealthy() {
		t.Fatal("new state should be healthy")
	}
	var zero State
	if !zero.IsHealthy() {
		t.Fatal("zero state should be healthy")
	}
}

func TestState_MarkUnhealthyIsSticky(t *testing.T) {
	s := New()

	if !s.MarkUnhealthy() {
		t.Error("first MarkUnhealthy should report the transition")
	}
	if s.MarkUnhealthy() {
		t.Error("second MarkUnhealthy should not report a transition")
	}
	if s.IsHealthy() {
		t.Fatal("state should be unhealthy")
	}
}

func TestState_ConcurrentReaders(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = s.IsHealthy()
			}
		}()
	}
	s.MarkUnhealthy()
	wg.Wait()

	if s.IsHealthy() {
		t.Fatal("state should be unhealthy")
	}
}
