package ui

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/sdk/domain"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPretty, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatJSON, &buf)

	f.Message("ignored %s", "message")
	require.NoError(t, f.Output([]domain.Session{{ID: "s1", AgentID: "a1"}}))

	var sessions []domain.Session
	require.NoError(t, json.Unmarshal(buf.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
}

func TestPrettyFormatterSessions(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatPretty, &buf)

	require.NoError(t, f.Output([]domain.Session{{ID: "session-1", AgentID: "agent-1", Situation: "debugging"}}))
	out := buf.String()
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "session-1")
	assert.Contains(t, out, "debugging")

	buf.Reset()
	require.NoError(t, f.Output([]domain.Session{}))
	assert.Contains(t, buf.String(), "No sessions found")
}

func TestPrettyFormatterFragment(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatPretty, &buf)

	for _, s := range []string{"Hel", "lo"} {
		require.NoError(t, f.Fragment(&domain.ChatChunk{Delta: domain.ChatMLMessage{Content: s}}))
	}
	assert.Equal(t, "Hello", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héll...", Truncate("héllo world", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
