// Package poll drives the periodic nudge cycle: discover eligible sessions,
// analyze each one with bounded concurrency, and dispatch approved nudges.
// At most one batch runs at a time; fires that land while a batch is still
// in flight are dropped and counted.
package poll

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/nudgekit-dev/nudgekit/internal/analyze"
	"github.com/nudgekit-dev/nudgekit/internal/delivery"
	"github.com/nudgekit-dev/nudgekit/internal/discovery"
	tracing "github.com/nudgekit-dev/nudgekit/internal/observability"
	"github.com/nudgekit-dev/nudgekit/pkg/observability"
)

// Analyzer produces a verdict for one session.
type Analyzer interface {
	Analyze(ctx context.Context, sessionID string) analyze.Verdict
}

// SessionLister enumerates the sessions a batch should consider.
type SessionLister interface {
	EligibleSessions(ctx context.Context, opts discovery.Options) ([]string, error)
}

// Batch summarizes one completed poll cycle.
type Batch struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Sent      []string
	Skipped   map[string]string
}

// Options configure a Poller.
type Options struct {
	Interval      time.Duration
	Discovery     discovery.Options
	MaxConcurrent int
}

// Poller owns the schedule and the batch lifecycle.
type Poller struct {
	lister   SessionLister
	analyzer Analyzer
	sink     delivery.Sink
	opts     Options

	cron    *cron.Cron
	runMu   sync.Mutex
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc

	inFlightMu sync.Mutex
	inFlight   int
}

// New creates a Poller. MaxConcurrent values below one are treated as one.
func New(lister SessionLister, analyzer Analyzer, sink delivery.Sink, opts Options) *Poller {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	return &Poller{
		lister:   lister,
		analyzer: analyzer,
		sink:     sink,
		opts:     opts,
	}
}

// Start begins firing batches on the configured interval.
func (p *Poller) Start() error {
	if p.opts.Interval <= 0 {
		return fmt.Errorf("poll: interval must be positive, got %v", p.opts.Interval)
	}

	p.baseCtx, p.cancel = context.WithCancel(context.Background())
	p.cron = cron.New()
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.opts.Interval), p.fire); err != nil {
		return fmt.Errorf("poll: schedule: %w", err)
	}
	p.cron.Start()
	log.Printf("poll: scheduler started, interval %v", p.opts.Interval)
	return nil
}

// Stop halts the schedule and waits for any in-flight batch, bounded by ctx.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("poll: shutdown timed out: %w", ctx.Err())
	}
}

// fire is the scheduled entry point. A fire that overlaps a running batch is
// dropped, matching the single-instance guarantee.
func (p *Poller) fire() {
	if !p.runMu.TryLock() {
		observability.RecordMissedFire()
		log.Print("poll: previous batch still running, skipping this fire")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.runMu.Unlock()
		batch := p.run(p.baseCtx)
		logBatch(batch)
	}()
}

// TriggerNow fires one batch immediately, as if the timer had fired. Like a
// scheduled fire it is dropped when a batch is already running, uses the
// poller's own context, and is drained by Stop. Call after Start.
func (p *Poller) TriggerNow() {
	p.fire()
}

// RunOnce executes a single batch synchronously, waiting for any in-flight
// batch to finish first. Stop waits for it like a scheduled batch.
func (p *Poller) RunOnce(ctx context.Context) *Batch {
	p.wg.Add(1)
	defer p.wg.Done()
	p.runMu.Lock()
	defer p.runMu.Unlock()
	batch := p.run(ctx)
	logBatch(batch)
	return batch
}

func (p *Poller) run(ctx context.Context) *Batch {
	start := time.Now()
	batch := &Batch{
		ID:        uuid.NewString(),
		StartedAt: start,
		Skipped:   make(map[string]string),
	}

	ctx, span := tracing.StartSpan(ctx, "poll.batch",
		attribute.String("batch.id", batch.ID))
	defer span.End()

	sessions, err := p.lister.EligibleSessions(ctx, p.opts.Discovery)
	if err != nil {
		log.Printf("poll: batch %s aborted: %v", batch.ID, err)
		batch.Duration = time.Since(start)
		return batch
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrent)

	for _, sessionID := range sessions {
		sessionID := sessionID
		g.Go(func() error {
			p.trackInFlight(1)
			defer p.trackInFlight(-1)

			v := p.analyzer.Analyze(gctx, sessionID)
			if v.Send {
				if err := p.sink.Send(gctx, sessionID, delivery.Instruction(v.Topic)); err != nil {
					v = analyze.Verdict{
						SessionID:  sessionID,
						SkipReason: fmt.Sprintf("error: delivery: %v", err),
					}
				} else {
					observability.RecordNudgeSent()
				}
			}

			observability.RecordVerdict(outcomeLabel(v))
			mu.Lock()
			if v.Send {
				batch.Sent = append(batch.Sent, sessionID)
			} else {
				batch.Skipped[sessionID] = v.SkipReason
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	batch.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("batch.sent", len(batch.Sent)),
		attribute.Int("batch.skipped", len(batch.Skipped)),
	)
	observability.RecordPollBatch(batch.Duration)
	return batch
}

func (p *Poller) trackInFlight(delta int) {
	p.inFlightMu.Lock()
	p.inFlight += delta
	observability.SetSessionsInFlight(p.inFlight)
	p.inFlightMu.Unlock()
}

func outcomeLabel(v analyze.Verdict) string {
	if v.Send {
		return "send"
	}
	switch v.SkipReason {
	case analyze.ReasonRecentActivity:
		return "recent_activity"
	case analyze.ReasonNoHistory:
		return "no_history"
	case analyze.ReasonOracleDeclined:
		return "oracle_declined"
	case analyze.ReasonNoTopic:
		return "no_topic"
	default:
		return "error"
	}
}

func logBatch(b *Batch) {
	log.Printf("poll: batch %s finished in %v: %d sent, %d skipped",
		b.ID, b.Duration.Round(time.Millisecond), len(b.Sent), len(b.Skipped))
	for sessionID, reason := range b.Skipped {
		log.Printf("poll: batch %s skipped %s: %s", b.ID, sessionID, reason)
	}
}
