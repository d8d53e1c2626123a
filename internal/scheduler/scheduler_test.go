package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSchedulerFiresRunnerOnEachTick(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	runner := RunFunc(func(ctx context.Context, now time.Time) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, nil
	})

	s := New(10*time.Millisecond, runner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	time.Sleep(55 * time.Millisecond)
	cancel()
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Fatalf("expected at least two ticks, got %d", calls)
	}
}

func TestSchedulerSkipsOverlappingTickAndMarksOverdue(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	runner := RunFunc(func(ctx context.Context, now time.Time) (any, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	})

	s := New(5*time.Millisecond, runner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)

	<-started
	time.Sleep(30 * time.Millisecond)
	if !s.Overdue() {
		t.Fatalf("expected overdue flag to be set while first tick runs long")
	}

	close(release)
	cancel()
	s.Stop()
}

func TestStopIsIdempotentWithinOneCall(t *testing.T) {
	runner := RunFunc(func(ctx context.Context, now time.Time) (any, error) { return nil, nil })
	s := New(time.Hour, runner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	time.Sleep(5 * time.Millisecond)
	s.Stop()
}
