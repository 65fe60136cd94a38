package generator

import "context"

// Generator is a chat-completion provider. Implementations wrap a single
// vendor API and stay thin: request translation, response extraction,
// nothing else.
type Generator interface {
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (*Response, error)
	Models(ctx context.Context) ([]ModelInfo, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

type ModelInfo struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
