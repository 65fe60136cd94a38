package embedder

import (
	"strings"
	"unicode/utf8"
)

// embedding models have input limits; keep well under them
const maxInputChars = 8000

// Clean collapses whitespace and caps the input length before it is sent
// to a provider.
func Clean(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > maxInputChars {
		cut := maxInputChars
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut] + "..."
	}
	return cleaned
}

func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}
