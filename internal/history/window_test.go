package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTranscript builds n alternating user/assistant turns starting with user.
func makeTranscript(n int) Transcript {
	t := make(Transcript, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		t = append(t, Turn{Role: role, Content: fmt.Sprintf("turn-%d", i)})
	}
	return t
}

func TestWindowUnlimited(t *testing.T) {
	transcript := makeTranscript(40)
	got := Window(transcript, WindowConfig{MaxExchangePairs: -1})
	assert.Equal(t, transcript, got)
}

func TestWindowUnderBudget(t *testing.T) {
	transcript := makeTranscript(6) // 3 pairs
	got := Window(transcript, WindowConfig{MaxExchangePairs: 3})
	assert.Equal(t, transcript, got)

	got = Window(transcript, WindowConfig{MaxExchangePairs: 10})
	assert.Equal(t, transcript, got)
}

func TestWindowTruncatesFromTail(t *testing.T) {
	// 12 turns = 6 pairs, budget 2, no head trim: keep (2-0+1)*2 = 6 turns.
	transcript := makeTranscript(12)
	got := Window(transcript, WindowConfig{MaxExchangePairs: 2, TrimFromHead: 0})

	require.Len(t, got, 6)
	assert.Equal(t, "turn-6", got[0].Content)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, "turn-11", got[len(got)-1].Content)
}

func TestWindowTrimFromHead(t *testing.T) {
	// Budget 3, trim 1: keep (3-1+1)*2 = 6 turns.
	transcript := makeTranscript(20)
	got := Window(transcript, WindowConfig{MaxExchangePairs: 3, TrimFromHead: 1})

	require.Len(t, got, 6)
	assert.Equal(t, "turn-14", got[0].Content)
}

func TestWindowRealignsToUserTurn(t *testing.T) {
	// Start the transcript with an assistant turn so the tail slice opens
	// mid-exchange.
	transcript := Transcript{
		{Role: RoleAssistant, Content: "a0"},
		{Role: RoleUser, Content: "u1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "u2"},
		{Role: RoleAssistant, Content: "a2"},
		{Role: RoleUser, Content: "u3"},
		{Role: RoleAssistant, Content: "a3"},
	}
	got := Window(transcript, WindowConfig{MaxExchangePairs: 1, TrimFromHead: 0})

	require.NotEmpty(t, got)
	assert.Equal(t, RoleUser, got[0].Role)
}

func TestWindowNoUserTurnLeftUnmodified(t *testing.T) {
	transcript := Transcript{
		{Role: RoleAssistant, Content: "a0"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleAssistant, Content: "a2"},
		{Role: RoleAssistant, Content: "a3"},
	}
	got := Window(transcript, WindowConfig{MaxExchangePairs: 1, TrimFromHead: 0})

	// No user turn to align to; the kept slice passes through.
	require.Len(t, got, 4)
	assert.Equal(t, RoleAssistant, got[0].Role)
}

func TestWindowKeepCountNotPositive(t *testing.T) {
	// TrimFromHead larger than the budget collapses the window to nothing;
	// must not panic.
	transcript := makeTranscript(12)
	got := Window(transcript, WindowConfig{MaxExchangePairs: 2, TrimFromHead: 5})
	assert.Empty(t, got)
}

func TestWindowEmptyTranscript(t *testing.T) {
	got := Window(nil, WindowConfig{MaxExchangePairs: 2})
	assert.Empty(t, got)
}
