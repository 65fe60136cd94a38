package chat

import (
	"time"

	"github.com/w-h-a/sourcerer/generator"
)

// Message is one turn of a conversation as persisted per session.
type Message struct {
	Id        string           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Provider  string           `json:"provider,omitempty"`
	Model     string           `json:"model,omitempty"`
	Usage     *generator.Usage `json:"usage,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

// IsSummary reports whether the message is a synthesized stand-in for
// truncated history.
func (m Message) IsSummary() bool {
	if m.Metadata == nil {
		return false
	}
	v, ok := m.Metadata["is_summary"].(bool)
	return ok && v
}

// SessionInfo is the per-session metadata kept alongside the message log.
type SessionInfo struct {
	Id             string    `json:"id"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TotalTokens    int       `json:"total_tokens"`
	Archived       bool      `json:"archived"`
	ContextSources []string  `json:"context_sources,omitempty"`
}
