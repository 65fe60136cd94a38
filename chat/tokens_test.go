package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("a", 100)))

	// multibyte runes count as runes, not bytes
	assert.Equal(t, 1, EstimateTokens("日本語です"))
}

func TestNewTokenCounter(t *testing.T) {
	count := NewTokenCounter()

	// holds for both the encoding and the heuristic fallback
	assert.Equal(t, 0, count(""))
	assert.Greater(t, count(strings.Repeat("the quick brown fox ", 20)), 0)
}

func TestConversationTokens(t *testing.T) {
	messages := []Message{
		{Content: strings.Repeat("a", 40)},
		{Content: strings.Repeat("b", 40)},
	}

	// 10 content tokens + 4 overhead per message
	assert.Equal(t, 28, ConversationTokens(EstimateTokens, messages, ""))

	// a pending message adds its own content and overhead
	assert.Equal(t, 28+14, ConversationTokens(EstimateTokens, messages, strings.Repeat("c", 40)))

	assert.Equal(t, 0, ConversationTokens(EstimateTokens, nil, ""))
}

func TestTruncatorUsesConfiguredCounter(t *testing.T) {
	calls := 0
	expensive := func(text string) int {
		calls++
		return 1000
	}

	truncator := NewTruncator(
		WithProvider("test"),
		WithModel("small"),
		WithLimits(Limits{"test": {"small": 2000}}),
		WithTokenCounter(expensive),
	)

	// every message blows the budget under this counter, so the floor wins
	messages := conversation(10, 1)

	result := truncator.TruncateIfNeeded(context.Background(), messages, "")
	assert.Len(t, result, 4)
	assert.Greater(t, calls, 0)
}
