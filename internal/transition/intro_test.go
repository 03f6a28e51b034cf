package transition

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRunIntroWaitsForReady(t *testing.T) {
	clock := NewScaledClock(0.01)
	rec := NewRecorder(clock)
	loader := rec.Target("loader")
	ready := make(chan struct{})

	var mu sync.Mutex
	var phases []IntroPhase
	observe := func(p IntroPhase) {
		mu.Lock()
		phases = append(phases, p)
		mu.Unlock()
	}

	errc := make(chan error, 1)
	go func() {
		errc <- RunIntro(context.Background(), clock, DefaultIntroTimings(), loader, ready, observe)
	}()

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	waiting := len(phases) == 1 && phases[0] == IntroLoading
	mu.Unlock()
	if !waiting {
		t.Fatalf("expected loader to wait for ready, phases=%v", phases)
	}
	close(ready)

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("RunIntro: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("intro did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []IntroPhase{IntroLoading, IntroFadingOut, IntroRevealed}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}
	if state := loader.State(); state[Visible] != 0 || state[Opacity] != 0 {
		t.Fatalf("loader still visible: %v", state)
	}
}

func TestRunIntroCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunIntro(ctx, NewScaledClock(1), DefaultIntroTimings(), nil, nil, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
