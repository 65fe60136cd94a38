package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/sources"
)

// research expands an item's context before generation: LLM-suggested
// queries, related material from the semantic index, and a synthesized
// summary. Every degraded path still returns a usable document; research
// never fails the pipeline.
func (p *Pipeline) research(ctx context.Context, item sources.Item) *Research {
	if cached := p.cachedResearch(ctx, item.Id); cached != nil {
		return cached
	}

	queries := p.researchQueries(ctx, item)
	related := p.relatedContext(ctx, item)
	summary := p.synthesizeResearch(ctx, item, queries, related)

	doc := &Research{
		ItemId:    item.Id,
		Queries:   queries,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}

	p.cacheResearch(ctx, doc)

	return doc
}

func (p *Pipeline) researchQueries(ctx context.Context, item sources.Item) []string {
	if p.generator == nil {
		return fallbackQueries(item)
	}

	prompt := "Based on the following article, generate 2-3 specific research queries that would help gather additional context and insights. Focus on key concepts, related topics, and broader implications.\n\n" +
		"Title: " + item.Title + "\n\n" +
		"Summary: " + orDefault(item.Summary, "No summary available") + "\n\n" +
		"Content Preview: " + cutContent(item.Content, 500) + "\n\n" +
		"Generate research queries in this format:\n1. [First query]\n2. [Second query]\n3. [Third query]\n\nQueries:"

	rsp, err := p.generator.Chat(
		ctx,
		[]generator.Message{{Role: generator.RoleUser, Content: prompt}},
		generator.WithMaxTokens(200),
		generator.WithTemperature(0.7),
	)
	if err != nil {
		slog.WarnContext(ctx, "research query generation failed", "item", item.Id, "error", err)
		return fallbackQueries(item)
	}

	queries := parseQueries(rsp.Content)
	if len(queries) == 0 {
		return fallbackQueries(item)
	}

	return queries
}

// parseQueries pulls numbered or bulleted lines out of an LLM response.
func parseQueries(response string) []string {
	var queries []string

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		first, _ := utf8.DecodeRuneInString(line)
		if !unicode.IsDigit(first) && first != '-' && first != '*' {
			continue
		}

		query := line
		if _, rest, found := strings.Cut(line, "."); found {
			query = rest
		}
		query = strings.TrimSpace(strings.TrimLeft(query, "-* "))

		if len(query) > 10 {
			queries = append(queries, query)
		}

		if len(queries) == 3 {
			break
		}
	}

	return queries
}

func fallbackQueries(item sources.Item) []string {
	var queries []string

	words := []string{}
	for _, word := range strings.Fields(item.Title) {
		if len(word) > 3 {
			words = append(words, word)
		}
		if len(words) == 3 {
			break
		}
	}
	if len(words) > 0 {
		queries = append(queries, "Latest developments in "+strings.Join(words, " "))
	}

	if len(item.Tags) > 0 {
		queries = append(queries, "Current trends in "+item.Tags[0])
	}

	if len(queries) == 0 {
		return []string{"Related news and information"}
	}
	if len(queries) > 2 {
		queries = queries[:2]
	}

	return queries
}

// relatedContext gathers up to two related items from the index, skipping
// the item under research itself.
func (p *Pipeline) relatedContext(ctx context.Context, item sources.Item) string {
	if p.engine == nil {
		return ""
	}

	query := strings.TrimSpace(item.Title + " " + item.Summary)

	gc, err := p.engine.ContextForGeneration(ctx, query, p.options.MaxResearchItems)
	if err != nil {
		slog.WarnContext(ctx, "related context lookup failed", "item", item.Id, "error", err)
		return ""
	}

	var b strings.Builder
	count := 0

	for _, related := range gc.Items {
		if related.ItemId == item.Id {
			continue
		}

		snippet := related.Summary
		if len(snippet) == 0 {
			snippet = related.Content
		}

		b.WriteString(fmt.Sprintf("\nSource %d: %s\n", count+1, related.Title))
		b.WriteString("Content: " + cutContent(snippet, 200) + "\n")

		count++
		if count == 2 {
			break
		}
	}

	return b.String()
}

func (p *Pipeline) synthesizeResearch(ctx context.Context, item sources.Item, queries []string, related string) string {
	if p.generator == nil {
		return fallbackResearchSummary(item, queries, related)
	}

	prompt := "Synthesize the following research into a comprehensive summary that provides additional context and insights for the main article.\n\n" +
		"Main Article:\nTitle: " + item.Title + "\n" +
		"Summary: " + orDefault(item.Summary, "No summary available") + "\n\n" +
		"Research Queries:\n- " + strings.Join(queries, "\n- ") + "\n\n" +
		"Research Results:\n" + related + "\n\n" +
		"Create a coherent research summary that:\n" +
		"1. Highlights key additional context and background\n" +
		"2. Identifies relevant trends or developments\n" +
		"3. Notes any conflicting or supporting information\n" +
		"4. Provides insights that enhance understanding of the main topic\n\n" +
		"Research Summary:"

	rsp, err := p.generator.Chat(
		ctx,
		[]generator.Message{{Role: generator.RoleUser, Content: prompt}},
		generator.WithMaxTokens(500),
		generator.WithTemperature(0.7),
	)
	if err != nil {
		slog.WarnContext(ctx, "research synthesis failed", "item", item.Id, "error", err)
		return fallbackResearchSummary(item, queries, related)
	}

	return strings.TrimSpace(rsp.Content)
}

func fallbackResearchSummary(item sources.Item, queries []string, related string) string {
	parts := []string{
		"Research conducted on: " + item.Title,
		"Research queries: " + strings.Join(queries, ", "),
	}

	if len(related) > 0 {
		parts = append(parts, "Found related internal sources")
	}

	parts = append(parts, "Additional context available from research sources.")

	return strings.Join(parts, ". ")
}

func (p *Pipeline) researchCachePath(itemId string) string {
	return filepath.Join(p.options.Dir, "research", "research_"+itemId+".json")
}

func (p *Pipeline) cachedResearch(ctx context.Context, itemId string) *Research {
	data, err := os.ReadFile(p.researchCachePath(itemId))
	if err != nil {
		return nil
	}

	var doc Research
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}

	if time.Since(doc.CreatedAt) > time.Duration(p.options.ResearchCacheTTL)*time.Hour {
		return nil
	}

	slog.DebugContext(ctx, "using cached research", "item", itemId)

	return &doc
}

func (p *Pipeline) cacheResearch(ctx context.Context, doc *Research) {
	path := p.researchCachePath(doc.ItemId)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.WarnContext(ctx, "failed to cache research", "item", doc.ItemId, "error", err)
		return
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.WarnContext(ctx, "failed to cache research", "item", doc.ItemId, "error", err)
	}
}
