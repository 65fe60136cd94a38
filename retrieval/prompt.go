package retrieval

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const DefaultMaxContextLength = 3000

// ContextPrompt formats retrieved items into a deterministic prompt block.
// Item content is truncated against a running character budget and items
// stop being added once the budget is spent; the query always closes the
// block.
func ContextPrompt(query string, items []ContextItem, maxContextLength int) string {
	if len(items) == 0 {
		return ""
	}

	if maxContextLength <= 0 {
		maxContextLength = DefaultMaxContextLength
	}

	var b strings.Builder
	b.WriteString("Based on the following relevant information:\n\n")

	length := b.Len()

	for i, item := range items {
		var part strings.Builder

		part.WriteString(fmt.Sprintf("Source %d (similarity: %.2f):\n", i+1, item.Similarity))

		if len(item.Title) > 0 {
			part.WriteString("Title: " + item.Title + "\n")
		}
		if len(item.Url) > 0 {
			part.WriteString("URL: " + item.Url + "\n")
		}
		if len(item.Author) > 0 {
			part.WriteString("Author: " + item.Author + "\n")
		}

		content := item.Content
		if len(content) == 0 {
			content = item.Summary
		}

		if len(content) > 0 {
			remaining := maxContextLength - length - part.Len() - 100
			if remaining > 100 {
				if len(content) > remaining {
					content = cutAtRune(content, remaining) + "..."
				}
				part.WriteString("Content: " + content + "\n")
			}
		}

		part.WriteString("\n")

		if length+part.Len() > maxContextLength {
			break
		}

		b.WriteString(part.String())
		length += part.Len()
	}

	b.WriteString("Query: " + query + "\n")

	return b.String()
}

// cutAtRune slices at most max bytes without splitting a multi-byte rune.
func cutAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
