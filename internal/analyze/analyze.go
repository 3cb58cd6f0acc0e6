// Package analyze runs the per-session decision pipeline: recency gate,
// history windowing, then the two-phase oracle protocol. Every outcome is a
// Verdict; failures never escape as errors or panics.
package analyze

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nudgekit-dev/nudgekit/internal/history"
	tracing "github.com/nudgekit-dev/nudgekit/internal/observability"
	"github.com/nudgekit-dev/nudgekit/internal/oracle"
	"github.com/nudgekit-dev/nudgekit/internal/store"
)

// Skip reasons reported in batch summaries.
const (
	ReasonRecentActivity = "recent activity"
	ReasonNoHistory      = "no history"
	ReasonOracleDeclined = "oracle declined"
	ReasonNoTopic        = "no topic"
)

// Verdict is the outcome of analyzing one session. Either Send is true and
// Topic carries the opener, or SkipReason explains why nothing happens.
type Verdict struct {
	SessionID  string
	Send       bool
	Topic      string
	SkipReason string
}

func skip(sessionID, reason string) Verdict {
	return Verdict{SessionID: sessionID, SkipReason: reason}
}

func skipError(sessionID string, err error) Verdict {
	return Verdict{SessionID: sessionID, SkipReason: fmt.Sprintf("error: %v", err)}
}

// Options configure a Pipeline.
type Options struct {
	// IdleThreshold is the minimum quiet period before a session may be
	// nudged.
	IdleThreshold time.Duration
	Window        history.WindowConfig
	Frequency     string
	IncludeTime   bool

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Pipeline analyzes sessions against a store and an oracle.
type Pipeline struct {
	store   store.Store
	decider Decider
	opts    Options
	now     func() time.Time
}

// Decider is the oracle half of the pipeline, satisfied by
// oracle.DecisionClient.
type Decider interface {
	ShouldNudge(ctx context.Context, in oracle.AnalysisInput) (bool, error)
	SuggestTopic(ctx context.Context, in oracle.AnalysisInput) (string, error)
}

// New creates a Pipeline.
func New(st store.Store, decider Decider, opts Options) *Pipeline {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{store: st, decider: decider, opts: opts, now: now}
}

// Analyze decides whether sessionID should receive a proactive message. It
// never panics; unexpected failures come back as error verdicts.
func (p *Pipeline) Analyze(ctx context.Context, sessionID string) (v Verdict) {
	ctx, span := tracing.StartSpan(ctx, "analyze.session",
		attribute.String("session.id", sessionID))
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analyze: panic for session %s: %v", sessionID, r)
			v = skipError(sessionID, fmt.Errorf("panic: %v", r))
		}
		span.SetAttributes(attribute.Bool("verdict.send", v.Send))
		if v.SkipReason != "" {
			span.SetAttributes(attribute.String("verdict.skip_reason", v.SkipReason))
		}
		span.End()
	}()

	now := p.now()

	last, err := p.store.LastActivity(ctx, sessionID)
	if err != nil {
		return skipError(sessionID, err)
	}
	// Unknown last activity leaves the session eligible.
	if last > 0 && now.Sub(time.Unix(last, 0)) < p.opts.IdleThreshold {
		return skip(sessionID, ReasonRecentActivity)
	}

	transcript, err := p.store.History(ctx, sessionID)
	if err != nil {
		return skipError(sessionID, err)
	}
	if len(transcript) == 0 {
		return skip(sessionID, ReasonNoHistory)
	}

	in := oracle.AnalysisInput{
		Transcript:  history.Window(transcript, p.opts.Window),
		Frequency:   p.opts.Frequency,
		Now:         now,
		IncludeTime: p.opts.IncludeTime,
	}

	send, err := p.decider.ShouldNudge(ctx, in)
	if err != nil {
		return skipError(sessionID, err)
	}
	if !send {
		return skip(sessionID, ReasonOracleDeclined)
	}

	topic, err := p.decider.SuggestTopic(ctx, in)
	if err != nil {
		return skipError(sessionID, err)
	}
	if topic == "" {
		return skip(sessionID, ReasonNoTopic)
	}

	return Verdict{SessionID: sessionID, Send: true, Topic: topic}
}
