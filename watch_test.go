package longrun

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWatch_EmitsUpdatesAndOutcome(t *testing.T) {
	remote := &fakeRemote{
		reports: []Report{
			{Status: StatusNotStarted},
			{Status: StatusRunning},
			{Status: StatusSucceeded},
		},
		result: "fields",
	}
	p := newTestPoller(t, remote)

	w := p.Watch(context.Background(), runningHandle(t, "op-1"), noDelay)

	var statuses []Status
	for h := range w.Updates() {
		statuses = append(statuses, h.Status())
	}

	want := []Status{StatusRunning, StatusRunning, StatusSucceeded}
	if len(statuses) != len(want) {
		t.Fatalf("updates = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("update %d = %q, want %q", i, statuses[i], want[i])
		}
	}

	out, err := w.Outcome()
	if err != nil {
		t.Fatalf("Outcome() error = %v", err)
	}
	if res, _ := p.Result(out.Handle); res != "fields" {
		t.Errorf("Result() = %q, want fields", res)
	}
}

// TestWatch_SameSemanticsAsWait verifies that the event-driven driver and the
// blocking driver agree on attempts for the same script.
func TestWatch_SameSemanticsAsWait(t *testing.T) {
	script := []Report{{Status: StatusRunning}, {Status: StatusRunning}, {Status: StatusRunning}, {Status: StatusSucceeded}}

	waitRemote := &fakeRemote{reports: script}
	waitOut, err := newTestPoller(t, waitRemote).Wait(context.Background(), runningHandle(t, "op"), noDelay)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	watchRemote := &fakeRemote{reports: script}
	watchOut, err := newTestPoller(t, watchRemote).Watch(context.Background(), runningHandle(t, "op"), noDelay).Outcome()
	if err != nil {
		t.Fatalf("Watch().Outcome() error = %v", err)
	}

	if waitOut.Attempts != watchOut.Attempts || waitRemote.checkCount() != watchRemote.checkCount() {
		t.Errorf("Wait attempts = %d, Watch attempts = %d", waitOut.Attempts, watchOut.Attempts)
	}
	if waitOut.Handle.Status() != watchOut.Handle.Status() {
		t.Errorf("Wait status = %q, Watch status = %q", waitOut.Handle.Status(), watchOut.Handle.Status())
	}
}

func TestWatch_Cancel(t *testing.T) {
	remote := &fakeRemote{}
	p := newTestPoller(t, remote)

	slow := StrategyFunc(func(int, State) (time.Duration, error) { return time.Hour, nil })
	w := p.Watch(context.Background(), runningHandle(t, "op-1"), slow)

	// wait for the first poll before cancelling
	select {
	case <-w.Updates():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for first update")
	}

	w.Cancel()
	w.Cancel() // idempotent

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for watcher to stop after Cancel()")
	}

	out, err := w.Outcome()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Outcome() error = %v, want context.Canceled", err)
	}
	if !out.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if out.Handle.Status() != StatusRunning {
		t.Errorf("Status() = %q, want running", out.Handle.Status())
	}
}

func TestWatch_ParentContextCancel(t *testing.T) {
	p := newTestPoller(t, &fakeRemote{})
	ctx, cancel := context.WithCancel(context.Background())

	slow := StrategyFunc(func(int, State) (time.Duration, error) { return time.Hour, nil })
	w := p.Watch(ctx, runningHandle(t, "op-1"), slow)

	cancel()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for watcher to stop after parent cancel")
	}

	if out, _ := w.Outcome(); !out.Cancelled {
		t.Error("Cancelled = false, want true")
	}
}

// TestWatch_OutcomeWithoutReadingUpdates verifies that a consumer that never
// drains Updates still receives the outcome.
func TestWatch_OutcomeWithoutReadingUpdates(t *testing.T) {
	reports := make([]Report, 0, watchBuffer*2+1)
	for i := 0; i < watchBuffer*2; i++ {
		reports = append(reports, Report{Status: StatusRunning})
	}
	reports = append(reports, Report{Status: StatusSucceeded})

	p := newTestPoller(t, &fakeRemote{reports: reports, result: "ok"})

	done := make(chan struct{})
	var out Outcome[string]
	var err error
	go func() {
		out, err = p.Watch(context.Background(), runningHandle(t, "op-1"), noDelay).Outcome()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Outcome() blocked on an undrained update channel")
	}

	if err != nil {
		t.Fatalf("Outcome() error = %v", err)
	}
	if out.Attempts != len(reports) {
		t.Errorf("Attempts = %d, want %d", out.Attempts, len(reports))
	}
}

// TestAdvance_DrivesCallerOwnedLoop shows an event-driven caller running the
// state machine from its own scheduler with Poll only.
func TestAdvance_DrivesCallerOwnedLoop(t *testing.T) {
	remote := &fakeRemote{reports: []Report{{Status: StatusRunning}, {Status: StatusSucceeded}}, result: "ok"}
	p := newTestPoller(t, remote)

	h := runningHandle(t, "op-1")
	ticks := time.NewTicker(time.Millisecond)
	defer ticks.Stop()

	for !h.Done() {
		<-ticks.C
		next, err := p.Poll(context.Background(), h)
		if err != nil {
			t.Fatalf("Poll() error = %v", err)
		}
		h = next
	}

	if h.Status() != StatusSucceeded {
		t.Errorf("Status() = %q, want succeeded", h.Status())
	}
}
