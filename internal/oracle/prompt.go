package oracle

import (
	"fmt"
	"strings"
	"time"

	"github.com/nudgekit-dev/nudgekit/internal/history"
	"github.com/nudgekit-dev/nudgekit/pkg/config"
)

// AnalysisInput carries everything the prompts need about one session.
type AnalysisInput struct {
	Transcript  history.Transcript
	Frequency   string
	Now         time.Time
	IncludeTime bool
}

const topicSystemPrompt = `You pick a natural conversation opener based on a past dialogue. Reply with the opener text only, no commentary.`

// Dialogue renders the transcript one turn per line, oldest first.
func (in AnalysisInput) Dialogue() string {
	var b strings.Builder
	for _, turn := range in.Transcript {
		stamp := "[time unknown]"
		if turn.Timestamp > 0 {
			stamp = time.Unix(turn.Timestamp, 0).Format("[2006-01-02 15:04:05]")
		}
		fmt.Fprintf(&b, "%s %s: %s\n", stamp, turn.Role, turn.Content)
	}
	return b.String()
}

func frequencyNote(frequency string) string {
	switch frequency {
	case config.FrequencyRare:
		return "Re-engagement preference: rare. Only speak up when there is a clearly unfinished or pressing thread."
	case config.FrequencyFrequent:
		return "Re-engagement preference: frequent. Lean towards reaching out whenever a friendly follow-up would feel natural."
	default:
		return "Re-engagement preference: moderate. Reach out when the dialogue suggests a genuine reason to follow up."
	}
}

func timeNote(now time.Time) string {
	hour := now.Hour()
	var period string
	switch {
	case hour >= 5 && hour < 12:
		period = "morning"
	case hour >= 12 && hour < 18:
		period = "afternoon"
	case hour >= 18 && hour < 23:
		period = "evening"
	default:
		period = "late night"
	}
	return fmt.Sprintf("Current time: %s (%s). Weigh whether this is an appropriate moment to message.", now.Format("15:04"), period)
}

// The decision phase carries the time context and the marker contract in
// the system prompt; the user prompt holds only the dialogue under review.
func buildAnalysisSystemPrompt(in AnalysisInput) string {
	var b strings.Builder
	b.WriteString("You are deciding whether an assistant should proactively re-open a conversation that has gone quiet.\n")
	if in.IncludeTime {
		b.WriteString(timeNote(in.Now))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Reply with exactly %s to approve or %s to decline, and nothing else.", markerYes, markerNo)
	return b.String()
}

func buildAnalysisPrompt(in AnalysisInput) string {
	var b strings.Builder
	b.WriteString("Below is the recent dialogue between the user and the assistant:\n\n")
	b.WriteString(in.Dialogue())
	b.WriteString("\n")
	b.WriteString(frequencyNote(in.Frequency))
	b.WriteString("\n\nShould the assistant proactively send the user a new message right now?")
	return b.String()
}

func buildTopicPrompt(in AnalysisInput) string {
	var b strings.Builder
	b.WriteString("Below is the recent dialogue between the user and the assistant:\n\n")
	b.WriteString(in.Dialogue())
	b.WriteString("\nSuggest one short, natural topic the assistant could use to re-open this conversation. Reply with the topic text only.")
	return b.String()
}
