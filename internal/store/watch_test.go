package store

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatchIndex_FiresOnRewrite(t *testing.T) {
	s := newTestStore(t)

	var fired atomic.Int32
	w, err := s.WatchIndex(20*time.Millisecond, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("WatchIndex: %v", err)
	}
	defer w.Close()

	if err := s.SaveIndex([]testMeta{{ID: "a", Title: "first"}}); err != nil {
		t.Fatalf("save index: %v", err)
	}
	waitFor(t, func() bool { return fired.Load() >= 1 })
}

func TestWatchIndex_DebouncesBursts(t *testing.T) {
	s := newTestStore(t)

	var fired atomic.Int32
	w, err := s.WatchIndex(150*time.Millisecond, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("WatchIndex: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := s.SaveIndex([]testMeta{{ID: "a", Title: "burst"}}); err != nil {
			t.Fatalf("save index: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitFor(t, func() bool { return fired.Load() >= 1 })

	// The burst should have collapsed into a single callback.
	time.Sleep(300 * time.Millisecond)
	if n := fired.Load(); n > 2 {
		t.Errorf("expected debounced callbacks, got %d", n)
	}
}

func TestWatchIndex_IgnoresRecordWrites(t *testing.T) {
	s := newTestStore(t)

	var fired atomic.Int32
	w, err := s.WatchIndex(20*time.Millisecond, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("WatchIndex: %v", err)
	}
	defer w.Close()

	if err := s.SaveRecord("r1", testRecord{ID: "r1", Title: "body"}); err != nil {
		t.Fatalf("save record: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("record write should not trigger index callback, got %d", n)
	}
}

func TestWatcher_CloseStops(t *testing.T) {
	s := newTestStore(t)

	var fired atomic.Int32
	w, err := s.WatchIndex(20*time.Millisecond, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("WatchIndex: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := s.SaveIndex([]testMeta{{ID: "a", Title: "after close"}}); err != nil {
		t.Fatalf("save index: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("closed watcher fired %d times", n)
	}
}
