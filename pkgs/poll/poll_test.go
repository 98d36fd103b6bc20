package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunStopsOnTerminal(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		calls := 0
		got, err := Run(context.Background(), Config{MaxAttempts: 10}, func(context.Context) (int, error) {
			calls++
			return calls, nil
		}, func(v int) bool { return v == n })
		if err != nil {
			t.Fatalf("n=%d: unexpected error %v", n, err)
		}
		if calls != n || got != n {
			t.Fatalf("n=%d: calls=%d got=%d", n, calls, got)
		}
	}
}

func TestRunTimesOutAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Run(context.Background(), Config{MaxAttempts: 4}, func(context.Context) (string, error) {
		calls++
		return "pending", nil
	}, func(string) bool { return false })
	if calls != 4 {
		t.Fatalf("expected exactly 4 calls, got %d", calls)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	var terr *TimeoutError
	if !errors.As(err, &terr) || terr.Attempts != 4 {
		t.Fatalf("unexpected timeout error %#v", terr)
	}
}

func TestRunSurfacesQueryError(t *testing.T) {
	boom := errors.New("rejected")
	calls := 0
	_, err := Run(context.Background(), Config{MaxAttempts: 5}, func(context.Context) (int, error) {
		calls++
		return 0, boom
	}, func(int) bool { return false })
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestRunHonoursCancellationDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Run(ctx, Config{MaxAttempts: 100, Interval: time.Hour}, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, nil
	}, func(int) bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRunWaitsBetweenAttemptsOnly(t *testing.T) {
	calls := 0
	start := time.Now()
	_, err := Run(context.Background(), Config{MaxAttempts: 3, Interval: 20 * time.Millisecond}, func(context.Context) (int, error) {
		calls++
		return calls, nil
	}, func(v int) bool { return v == 3 })
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("expected two waits, elapsed %s", elapsed)
	}
}

func TestObserverSeesEveryAttempt(t *testing.T) {
	var seen []State[int]
	p := Poller[int]{
		Config:   Config{MaxAttempts: 5},
		Query:    func(context.Context) (int, error) { return len(seen) + 1, nil },
		Terminal: func(v int) bool { return v == 2 },
		Observe:  func(s State[int]) { seen = append(seen, s) },
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(seen) != 2 || seen[0].Terminal || !seen[1].Terminal || seen[1].Attempt != 2 {
		t.Fatalf("unexpected observations %+v", seen)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{MaxAttempts: 0}).Validate(); err == nil {
		t.Fatal("expected error for zero attempts")
	}
	if err := (Config{MaxAttempts: 1, Interval: -time.Second}).Validate(); err == nil {
		t.Fatal("expected error for negative interval")
	}
}
