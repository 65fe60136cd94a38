package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/w-h-a/sourcerer/generator"
)

// Truncator keeps a conversation within the active model's token budget.
// Older messages are folded into a single synthesized summary while the
// most recent ones are preserved verbatim. Truncation never fails: any
// unexpected error returns the original messages untouched.
type Truncator struct {
	options Options
}

// AvailableTokens is the raw model limit minus the response and system
// prompt reserves.
func (t *Truncator) AvailableTokens() int {
	limit := t.options.Limits.Limit(t.options.Provider, t.options.Model)
	return limit - t.options.ResponseReserve - t.options.SystemReserve
}

// TruncateIfNeeded returns the input unchanged when it fits the budget, so
// re-truncating an already truncated conversation is a no-op.
func (t *Truncator) TruncateIfNeeded(ctx context.Context, messages []Message, newContent string) []Message {
	available := t.AvailableTokens()
	total := ConversationTokens(t.options.Counter, messages, newContent)

	if total <= available {
		return messages
	}

	slog.InfoContext(ctx, "truncating conversation", "total_tokens", total, "available_tokens", available, "messages", len(messages))

	return t.truncate(ctx, messages, available)
}

func (t *Truncator) truncate(ctx context.Context, messages []Message, available int) []Message {
	if len(messages) <= t.options.MinRecent {
		return messages
	}

	// walk backward, keeping recent messages within their share of the
	// budget; the remainder is headroom for the summary and new message
	recentBudget := int(float64(available) * t.options.RecentFraction)

	keep := 0
	tokens := 0

	for i := len(messages) - 1; i >= 0; i-- {
		cost := t.options.Counter(messages[i].Content) + messageOverheadTokens
		if tokens+cost > recentBudget {
			break
		}
		tokens += cost
		keep++
	}

	// the floor wins over the budget
	if keep < t.options.MinRecent {
		return messages[len(messages)-t.options.MinRecent:]
	}

	recent := messages[len(messages)-keep:]
	older := messages[:len(messages)-keep]

	if len(older) == 0 {
		return recent
	}

	summary := t.summarize(ctx, older)

	result := make([]Message, 0, len(recent)+1)
	result = append(result, summary)
	result = append(result, recent...)

	return result
}

// summarize folds the given messages into a single system message. A
// provider failure degrades to a deterministic placeholder; this path never
// raises.
func (t *Truncator) summarize(ctx context.Context, messages []Message) Message {
	content, err := t.generateSummary(ctx, messages)
	if err != nil {
		slog.WarnContext(ctx, "summary generation failed, using placeholder", "messages", len(messages), "error", err)
		content = placeholderSummary(messages)
	}

	return Message{
		Id:        "summary-" + uuid.New().String(),
		Role:      generator.RoleSystem,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]any{
			"is_summary":       true,
			"summarized_count": len(messages),
		},
	}
}

func (t *Truncator) generateSummary(ctx context.Context, messages []Message) (string, error) {
	if t.options.Generator == nil {
		return "", fmt.Errorf("no generator configured")
	}

	var conversation strings.Builder
	for _, msg := range messages {
		conversation.WriteString(msg.Role + ": " + msg.Content + "\n\n")
	}

	// cap the input so the summary request itself cannot blow the budget
	text := conversation.String()
	if len(text) > 2000 {
		cut := 2000
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	prompt := "Create a concise summary of this conversation that captures the key topics, decisions, and context needed to continue the discussion:\n\n" +
		text +
		"\n\nProvide 2-3 sentences that preserve the essential context."

	rsp, err := t.options.Generator.Chat(
		ctx,
		[]generator.Message{
			{Role: generator.RoleSystem, Content: "You are a helpful assistant that creates concise conversation summaries."},
			{Role: generator.RoleUser, Content: prompt},
		},
		generator.WithTemperature(0.1),
		generator.WithMaxTokens(200),
	)
	if err != nil {
		return "", err
	}

	return "[Previous conversation summary: " + strings.TrimSpace(rsp.Content) + "]", nil
}

func placeholderSummary(messages []Message) string {
	first := messages[0].Timestamp.Format("2006-01-02 15:04")
	last := messages[len(messages)-1].Timestamp.Format("2006-01-02 15:04")
	return fmt.Sprintf("[Conversation summary: %d earlier messages from %s to %s]", len(messages), first, last)
}

func NewTruncator(opts ...Option) *Truncator {
	options := NewOptions(opts...)

	return &Truncator{
		options: options,
	}
}
