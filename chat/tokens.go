package chat

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// tokens each message costs on top of its content, for role and formatting
const messageOverheadTokens = 4

const encodingName = "cl100k_base"

// TokenCounter counts the tokens a piece of text will consume.
type TokenCounter func(text string) int

// EstimateTokens approximates the token count at roughly four characters
// per token. It is the degraded path when no encoding can be loaded.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

var defaultCounter = sync.OnceValue(NewTokenCounter)

// NewTokenCounter returns a counter backed by the cl100k_base encoding.
// When the encoding cannot be loaded it falls back to EstimateTokens, so
// counting never depends on network availability.
func NewTokenCounter() TokenCounter {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		slog.Warn("token encoding unavailable, using character heuristic", "encoding", encodingName, "error", err)
		return EstimateTokens
	}

	return func(text string) int {
		return len(encoding.Encode(text, nil, nil))
	}
}

// ConversationTokens counts all message content plus per-message overhead
// plus an optional not-yet-appended message.
func ConversationTokens(count TokenCounter, messages []Message, newContent string) int {
	total := 0

	for _, msg := range messages {
		total += count(msg.Content) + messageOverheadTokens
	}

	if len(newContent) > 0 {
		total += count(newContent) + messageOverheadTokens
	}

	return total
}
