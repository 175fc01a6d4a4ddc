package longrun

import (
	"context"
	"testing"
	"time"
)

func TestWithPollInterval(t *testing.T) {
	remote := &fakeRemote{accepted: Accepted{ID: "op-1"}}

	p, err := New[string, string](remote, WithPollInterval(750*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	h, err := p.Start(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h.PollInterval() != 750*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 750ms", h.PollInterval())
	}

	resumed, err := p.Resume("op-2")
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resumed.PollInterval() != 750*time.Millisecond {
		t.Errorf("Resume().PollInterval() = %v, want 750ms", resumed.PollInterval())
	}
}

func TestWithStrategy_UsedWhenNilPassed(t *testing.T) {
	var calls int
	strategy := StrategyFunc(func(attempt int, last State) (time.Duration, error) {
		calls++
		if attempt >= 2 {
			return 0, ErrBudgetExhausted
		}
		return 0, nil
	})

	p, err := New[string, string](&fakeRemote{}, WithStrategy(strategy))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Wait(context.Background(), runningHandle(t, "op-1"), nil)
	if err == nil {
		t.Fatal("Wait() expected timeout error, got nil")
	}
	if calls != 2 {
		t.Errorf("strategy calls = %d, want 2", calls)
	}
}

func TestWithStrategy_ExplicitOverridesDefault(t *testing.T) {
	var defaultCalls int
	def := StrategyFunc(func(int, State) (time.Duration, error) {
		defaultCalls++
		return 0, nil
	})

	p, err := New[string, string](&fakeRemote{reports: []Report{{Status: StatusRunning}, {Status: StatusSucceeded}}}, WithStrategy(def))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := p.Wait(context.Background(), runningHandle(t, "op-1"), noDelay); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if defaultCalls != 0 {
		t.Errorf("default strategy calls = %d, want 0", defaultCalls)
	}
}
