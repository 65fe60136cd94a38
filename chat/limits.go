package chat

// Limits maps provider -> model -> context window in tokens. Models not
// listed fall back to DefaultTokenLimit.
type Limits map[string]map[string]int

const DefaultTokenLimit = 4096

// DefaultLimits covers the models the built-in generators are pointed at.
// Config can override or extend the table.
func DefaultLimits() Limits {
	return Limits{
		"openai": {
			"gpt-4":             8192,
			"gpt-4-32k":         32768,
			"gpt-4o":            128000,
			"gpt-3.5-turbo":     4096,
			"gpt-3.5-turbo-16k": 16384,
		},
		"anthropic": {
			"claude-3-opus":   200000,
			"claude-3-sonnet": 200000,
			"claude-3-haiku":  200000,
		},
	}
}

// Limit resolves the context window for a provider/model pair.
func (l Limits) Limit(provider, model string) int {
	if models, ok := l[provider]; ok {
		if limit, ok := models[model]; ok && limit > 0 {
			return limit
		}
	}
	return DefaultTokenLimit
}
