package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// manualScheduler returns a scheduler whose delays complete only when the
// returned trigger is called.
func manualScheduler(d Deleter) (*Scheduler, func()) {
	s := NewScheduler(d)
	fire := make(chan time.Time)
	s.after = func(time.Duration) <-chan time.Time { return fire }
	return s, func() { close(fire) }
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func (f *fakeTransport) deleteCalls() [][]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]int64(nil), f.deletes...)
}

func TestScheduler_DeletesAfterDelay(t *testing.T) {
	ft := &fakeTransport{}
	s, fire := manualScheduler(ft)

	s.ScheduleDelete(9, []int64{1, 2, 3}, DeliveryTTL)
	if got := ft.deleteCalls(); len(got) != 0 {
		t.Fatalf("deleted before delay: %v", got)
	}

	fire()
	waitFor(t, func() bool { return len(ft.deleteCalls()) == 1 })
	if diff := cmp.Diff([][]int64{{1, 2, 3}}, ft.deleteCalls()); diff != "" {
		t.Fatalf("deletes (-want +got):\n%s", diff)
	}
}

func TestScheduler_EmptyIsNoop(t *testing.T) {
	ft := &fakeTransport{}
	s := NewScheduler(ft)
	s.ScheduleDelete(1, nil, time.Millisecond)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := ft.deleteCalls(); len(got) != 0 {
		t.Fatalf("unexpected deletes: %v", got)
	}
}

func TestScheduler_ShutdownFlushesPending(t *testing.T) {
	ft := &fakeTransport{}
	s, _ := manualScheduler(ft)

	s.ScheduleDelete(1, []int64{10}, time.Hour)
	s.ScheduleDelete(2, []int64{20, 21}, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := ft.deleteCalls(); len(got) != 2 {
		t.Fatalf("want 2 deletes after shutdown, got %v", got)
	}

	s.ScheduleDelete(3, []int64{30}, time.Hour)
	if got := ft.deleteCalls(); len(got) != 3 {
		t.Fatalf("post-shutdown schedule should run immediately, got %v", got)
	}
}

func TestScheduler_DeleteFailureIsSwallowed(t *testing.T) {
	ft := &fakeTransport{deleteErr: errors.New("message to delete not found")}
	s := NewScheduler(ft)
	s.ScheduleDelete(1, []int64{5}, time.Millisecond)

	waitFor(t, func() bool { return len(ft.deleteCalls()) == 1 })
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestScheduler_CallerIsNotBlocked(t *testing.T) {
	s := NewScheduler(&fakeTransport{})
	start := time.Now()
	s.ScheduleDelete(1, []int64{1}, time.Hour)
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("ScheduleDelete blocked the caller")
	}
	_ = s.Shutdown(context.Background())
}
