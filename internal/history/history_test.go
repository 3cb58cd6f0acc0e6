package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`[
		{"role": "user", "content": "hi", "timestamp": 1700000000},
		{"role": "assistant", "content": "hello"}
	]`)

	transcript, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, transcript, 2)

	assert.Equal(t, RoleUser, transcript[0].Role)
	assert.Equal(t, int64(1700000000), transcript[0].Timestamp)
	assert.Equal(t, int64(0), transcript[1].Timestamp)
}

func TestParseStringTimestamp(t *testing.T) {
	data := []byte(`[{"role": "user", "content": "hi", "timestamp": "1700000123"}]`)

	transcript, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, transcript, 1)
	assert.Equal(t, int64(1700000123), transcript[0].Timestamp)
}

func TestParseUnparseableTimestampDegrades(t *testing.T) {
	data := []byte(`[{"role": "user", "content": "hi", "timestamp": "yesterday"}]`)

	transcript, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, transcript, 1)
	assert.Equal(t, int64(0), transcript[0].Timestamp)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"not": "a list"}`))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	transcript, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, transcript)
}

func TestPairs(t *testing.T) {
	assert.Equal(t, 0, Transcript{}.Pairs())
	assert.Equal(t, 0, makeTranscript(1).Pairs())
	assert.Equal(t, 1, makeTranscript(2).Pairs())
	assert.Equal(t, 2, makeTranscript(5).Pairs())
}

func TestLastTimestamp(t *testing.T) {
	transcript := Transcript{
		{Role: RoleUser, Content: "a", Timestamp: 100},
		{Role: RoleAssistant, Content: "b", Timestamp: 200},
		{Role: RoleUser, Content: "c"},
	}
	assert.Equal(t, int64(200), transcript.LastTimestamp())
	assert.Equal(t, int64(0), Transcript{}.LastTimestamp())
}
