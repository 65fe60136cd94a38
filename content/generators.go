package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/sources"
)

type platformSpec struct {
	Style       string
	Length      string
	Tone        string
	MaxChars    int
	MaxDuration int
}

var platformSpecs = map[string]platformSpec{
	"tiktok": {
		Style:       "engaging, trendy, hook-focused",
		Length:      "short and punchy",
		Tone:        "casual, energetic",
		MaxDuration: 60,
	},
	"instagram": {
		Style:       "visual-focused, story-driven",
		Length:      "concise with strong visuals",
		Tone:        "authentic, relatable",
		MaxDuration: 90,
	},
	"x": {
		Style:    "conversational, thread-friendly",
		Length:   "thread of 3-5 tweets",
		Tone:     "informative, engaging",
		MaxChars: 280,
	},
	"youtube": {
		Style:       "educational, comprehensive",
		Length:      "detailed explanation",
		Tone:        "professional, informative",
		MaxDuration: 300,
	},
}

func (p *Pipeline) generateSummary(ctx context.Context, item sources.Item, research *Research, instructions string) Generated {
	parts := []string{
		"Article Title: " + item.Title,
		"Source URL: " + item.Url,
	}

	if len(item.Author) > 0 {
		parts = append(parts, "Author: "+item.Author)
	}
	if !item.PublishedAt.IsZero() {
		parts = append(parts, "Published: "+item.PublishedAt.Format("2006-01-02"))
	}
	if len(item.Summary) > 0 {
		parts = append(parts, "Original Summary: "+item.Summary)
	}
	if len(item.Content) > 0 {
		parts = append(parts, "Article Content: "+cutContent(item.Content, 2000))
	}
	if research != nil && len(research.Summary) > 0 {
		parts = append(parts, "Research Context: "+research.Summary)
	}

	prompt := "Create a comprehensive summary and analysis of the following article. Include key insights, potential implications, and analysis of trends or patterns mentioned.\n\n" +
		strings.Join(parts, "\n") + "\n\n" +
		"Tags: " + orDefault(strings.Join(item.Tags, ", "), "None") + "\n\n" +
		"Your summary should include:\n" +
		"1. Core Summary: Key points and main message\n" +
		"2. Key Insights: Important takeaways and implications\n" +
		"3. Context & Background: Relevant background information\n" +
		"4. Trends & Patterns: Notable trends or patterns identified\n" +
		"5. Potential Impact: Possible implications or effects\n\n"

	if len(instructions) > 0 {
		prompt += "Custom Instructions: " + instructions + "\n\n"
	}

	prompt += "Provide a well-structured, informative summary:"

	body, err := p.chat(ctx, prompt, 800, 0.7)
	if err != nil {
		slog.ErrorContext(ctx, "summary generation failed", "item", item.Id, "error", err)
		return Generated{
			Type:     TypeSummary,
			Title:    "Summary Error: " + item.Title,
			Content:  "Summary generation failed: " + err.Error(),
			Metadata: map[string]any{"error": true},
		}
	}

	return Generated{
		Type:    TypeSummary,
		Title:   "Summary: " + item.Title,
		Content: body,
		Metadata: map[string]any{
			"source_url":   item.Url,
			"has_research": research != nil,
			"word_count":   len(strings.Fields(body)),
		},
	}
}

func (p *Pipeline) generateScripts(ctx context.Context, item sources.Item, platforms []string, research *Research, instructions string) Generated {
	if len(platforms) == 0 {
		return Generated{
			Type:     TypeScripts,
			Title:    "Scripts Error: " + item.Title,
			Metadata: map[string]any{"error": true, "error_message": "no platforms requested"},
		}
	}

	scripts := make([]PlatformScript, 0, len(platforms))

	for _, platform := range platforms {
		spec, known := platformSpecs[platform]
		if !known {
			slog.WarnContext(ctx, "skipping unknown platform", "platform", platform)
			continue
		}

		script, err := p.generatePlatformScript(ctx, item, platform, spec, research, instructions)
		if err != nil {
			slog.ErrorContext(ctx, "script generation failed", "item", item.Id, "platform", platform, "error", err)
			continue
		}

		scripts = append(scripts, PlatformScript{Platform: platform, Content: script})
	}

	if len(scripts) == 0 {
		return Generated{
			Type:     TypeScripts,
			Title:    "Scripts Error: " + item.Title,
			Metadata: map[string]any{"error": true, "error_message": "no scripts generated"},
		}
	}

	return Generated{
		Type:    TypeScripts,
		Title:   "Scripts for " + item.Title,
		Scripts: scripts,
		Metadata: map[string]any{
			"platforms":    platforms,
			"has_research": research != nil,
		},
	}
}

func (p *Pipeline) generatePlatformScript(ctx context.Context, item sources.Item, platform string, spec platformSpec, research *Research, instructions string) (string, error) {
	body := item.Content
	if len(body) == 0 {
		body = item.Summary
	}

	prompt := fmt.Sprintf("Create a %s script based on this article.\n\n", platform) +
		"Article: " + item.Title + "\n" +
		"Content Preview: " + cutContent(body, 1000) + "\n" +
		"URL: " + item.Url + "\n"

	if research != nil && len(research.Summary) > 0 {
		prompt += "Research Insights: " + cutContent(research.Summary, 500) + "\n"
	}

	prompt += fmt.Sprintf("\nPlatform Requirements for %s:\n", strings.ToUpper(platform)) +
		"- Style: " + spec.Style + "\n" +
		"- Length: " + spec.Length + "\n" +
		"- Tone: " + spec.Tone + "\n"

	maxTokens := 800

	if spec.MaxChars > 0 {
		prompt += fmt.Sprintf("- Character limit: %d per tweet\n", spec.MaxChars)
		prompt += "Format as a thread with numbered posts.\n"
		maxTokens = 600
	} else {
		prompt += fmt.Sprintf("- Max duration: %d seconds\n", spec.MaxDuration)
		prompt += "Include timing cues and visual descriptions.\n"
	}

	if len(instructions) > 0 {
		prompt += "\nCustom Instructions: " + instructions + "\n"
	}

	prompt += fmt.Sprintf("\nCreate an engaging %s script:", platform)

	return p.chat(ctx, prompt, maxTokens, 0.8)
}

func (p *Pipeline) chat(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	if p.generator == nil {
		return "", fmt.Errorf("no generator configured")
	}

	rsp, err := p.generator.Chat(
		ctx,
		[]generator.Message{{Role: generator.RoleUser, Content: prompt}},
		generator.WithMaxTokens(maxTokens),
		generator.WithTemperature(temperature),
	)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(rsp.Content), nil
}

func orDefault(value string, fallback string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallback
	}
	return value
}

// cutContent caps text at max bytes without splitting a multi-byte rune.
func cutContent(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max] + "..."
}
