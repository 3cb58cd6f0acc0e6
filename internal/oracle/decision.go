package oracle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nudgekit-dev/nudgekit/pkg/observability"
)

// Decision markers the model is instructed to reply with. The short NO
// variant shows up in practice when models drop the trailing caret, so both
// spellings are accepted.
const (
	markerYes     = "^&YES&^"
	markerNo      = "^&NO&^"
	markerNoShort = "^&NO^"
)

// DecisionClient runs the two-phase nudge protocol against an oracle.
type DecisionClient struct {
	oracle Oracle
}

// NewDecisionClient creates a decision client for the given oracle.
func NewDecisionClient(o Oracle) *DecisionClient {
	return &DecisionClient{oracle: o}
}

// ShouldNudge asks the oracle whether the session deserves a proactive
// message. Replies without a recognizable marker decline; only an explicit
// YES marker approves.
func (c *DecisionClient) ShouldNudge(ctx context.Context, in AnalysisInput) (bool, error) {
	reply, err := c.generate(ctx, "decide", buildAnalysisSystemPrompt(in), buildAnalysisPrompt(in))
	if err != nil {
		return false, fmt.Errorf("nudge decision: %w", err)
	}

	switch {
	case strings.Contains(reply, markerYes):
		return true, nil
	case strings.Contains(reply, markerNo), strings.Contains(reply, markerNoShort):
		return false, nil
	}

	log.Printf("oracle: decision reply carried no marker, declining: %q", truncateForLog(reply))
	return false, nil
}

// SuggestTopic asks the oracle for a conversation opener. An empty or
// whitespace-only reply yields an empty topic.
func (c *DecisionClient) SuggestTopic(ctx context.Context, in AnalysisInput) (string, error) {
	reply, err := c.generate(ctx, "topic", topicSystemPrompt, buildTopicPrompt(in))
	if err != nil {
		return "", fmt.Errorf("topic suggestion: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func (c *DecisionClient) generate(ctx context.Context, phase, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	reply, err := c.oracle.Generate(ctx, systemPrompt, userPrompt)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordOracleRequest(phase, status, time.Since(start))
	return reply, err
}

func truncateForLog(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
