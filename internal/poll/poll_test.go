package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nudgekit-dev/nudgekit/internal/analyze"
	"github.com/nudgekit-dev/nudgekit/internal/discovery"
)

type fakeLister struct {
	sessions []string
	err      error
}

func (f *fakeLister) EligibleSessions(ctx context.Context, opts discovery.Options) ([]string, error) {
	return f.sessions, f.err
}

type fakeAnalyzer struct {
	verdicts map[string]analyze.Verdict
	block    chan struct{}
	calls    int32
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, sessionID string) analyze.Verdict {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	if v, ok := f.verdicts[sessionID]; ok {
		v.SessionID = sessionID
		return v
	}
	return analyze.Verdict{SessionID: sessionID, SkipReason: analyze.ReasonOracleDeclined}
}

type recordingSink struct {
	mu    sync.Mutex
	sent  map[string]string
	fail  bool
	calls int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{sent: make(map[string]string)}
}

func (r *recordingSink) Send(ctx context.Context, sessionID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail {
		return errors.New("transport down")
	}
	r.sent[sessionID] = text
	return nil
}

func TestRunOnceReport(t *testing.T) {
	lister := &fakeLister{sessions: []string{"a", "b", "c"}}
	analyzer := &fakeAnalyzer{verdicts: map[string]analyze.Verdict{
		"a": {Send: true, Topic: "follow up on the trip"},
		"b": {SkipReason: analyze.ReasonRecentActivity},
		"c": {SkipReason: analyze.ReasonNoHistory},
	}}
	sink := newRecordingSink()

	p := New(lister, analyzer, sink, Options{Interval: time.Minute, MaxConcurrent: 2})
	batch := p.RunOnce(context.Background())

	if batch.ID == "" {
		t.Error("batch should carry an id")
	}
	if len(batch.Sent) != 1 || batch.Sent[0] != "a" {
		t.Errorf("expected only session a sent, got %v", batch.Sent)
	}
	if batch.Skipped["b"] != analyze.ReasonRecentActivity || batch.Skipped["c"] != analyze.ReasonNoHistory {
		t.Errorf("unexpected skip map: %v", batch.Skipped)
	}
	text, ok := sink.sent["a"]
	if !ok || text == "" {
		t.Error("sink should have received the nudge instruction")
	}
}

func TestRunOnceDeliveryFailureBecomesSkip(t *testing.T) {
	lister := &fakeLister{sessions: []string{"a"}}
	analyzer := &fakeAnalyzer{verdicts: map[string]analyze.Verdict{
		"a": {Send: true, Topic: "x"},
	}}
	sink := newRecordingSink()
	sink.fail = true

	p := New(lister, analyzer, sink, Options{Interval: time.Minute})
	batch := p.RunOnce(context.Background())

	if len(batch.Sent) != 0 {
		t.Errorf("failed delivery must not count as sent: %v", batch.Sent)
	}
	if reason := batch.Skipped["a"]; reason == "" {
		t.Error("failed delivery should record a skip reason")
	}
}

func TestRunOnceDiscoveryFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("store offline")}
	analyzer := &fakeAnalyzer{}
	p := New(lister, analyzer, newRecordingSink(), Options{Interval: time.Minute})

	batch := p.RunOnce(context.Background())
	if len(batch.Sent) != 0 || len(batch.Skipped) != 0 {
		t.Errorf("aborted batch should be empty, got %+v", batch)
	}
	if atomic.LoadInt32(&analyzer.calls) != 0 {
		t.Error("no sessions should be analyzed when discovery fails")
	}
}

func TestFireSkipsWhileBatchRunning(t *testing.T) {
	block := make(chan struct{})
	lister := &fakeLister{sessions: []string{"a"}}
	analyzer := &fakeAnalyzer{block: block}

	p := New(lister, analyzer, newRecordingSink(), Options{Interval: time.Minute})
	p.baseCtx, p.cancel = context.WithCancel(context.Background())
	defer p.cancel()

	p.fire()
	// Wait for the first batch to reach the analyzer.
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&analyzer.calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("first batch never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	p.fire()
	close(block)
	p.wg.Wait()

	if got := atomic.LoadInt32(&analyzer.calls); got != 1 {
		t.Errorf("overlapping fire should be dropped, analyzer ran %d times", got)
	}
}

func TestStopDrainsInFlightBatch(t *testing.T) {
	block := make(chan struct{})
	lister := &fakeLister{sessions: []string{"a"}}
	analyzer := &fakeAnalyzer{block: block}

	p := New(lister, analyzer, newRecordingSink(), Options{Interval: time.Hour})
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.TriggerNow()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&analyzer.calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("batch never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(block)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStopDrainsRunOnce(t *testing.T) {
	block := make(chan struct{})
	lister := &fakeLister{sessions: []string{"a"}}
	analyzer := &fakeAnalyzer{block: block, verdicts: map[string]analyze.Verdict{
		"a": {Send: true, Topic: "x"},
	}}
	sink := newRecordingSink()

	p := New(lister, analyzer, sink, Options{Interval: time.Hour})

	done := make(chan *Batch, 1)
	go func() { done <- p.RunOnce(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&analyzer.calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("batch never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(block)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Stop must not return before the batch finished its delivery.
	select {
	case batch := <-done:
		if len(batch.Sent) != 1 {
			t.Errorf("expected the drained batch to complete, got %+v", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop returned while the batch was still running")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.calls != 1 {
		t.Errorf("sink should have been called exactly once, got %d", sink.calls)
	}
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	p := New(&fakeLister{}, &fakeAnalyzer{}, newRecordingSink(), Options{})
	if err := p.Start(); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
