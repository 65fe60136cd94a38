package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>  First   Post  </title>
      <link>https://example.com/first</link>
      <description>An intro to the feed.</description>
      <author>pat@example.com (Pat)</author>
      <category>go</category>
      <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No Link</title>
      <description>Entries without links are skipped.</description>
    </item>
  </channel>
</rss>`

const pageHTML = `<!DOCTYPE html>
<html>
<head>
  <title>A Long Read</title>
  <meta name="description" content="What the page is about.">
  <meta name="author" content="Sam">
  <meta property="article:published_time" content="2025-06-02T10:00:00Z">
</head>
<body>
  <article>
    <h1>A Long Read</h1>
    <p>The first paragraph of a reasonably long article body that the reader extracts.</p>
    <p>A second paragraph to give the extractor something to work with here.</p>
  </article>
</body>
</html>`

func TestRSSParserParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	parser := NewRSSParser()

	items, err := parser.Parse(context.Background(), Source{Id: "feed-1", Type: SourceTypeRSS, Url: srv.URL})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, ItemId("https://example.com/first"), item.Id)
	assert.Equal(t, "feed-1", item.SourceId)
	assert.Equal(t, "First Post", item.Title)
	assert.Equal(t, "https://example.com/first", item.Url)
	assert.Equal(t, "An intro to the feed.", item.Summary)
	assert.Equal(t, []string{"go"}, item.Tags)
	assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), item.PublishedAt)

	// content falls back to the description
	assert.Equal(t, item.Summary, item.Content)
}

func TestRSSParserNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	parser := NewRSSParser()

	_, err := parser.Parse(context.Background(), Source{Url: srv.URL})
	require.Error(t, err)
}

func TestHTMLParserExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(pageHTML))
	}))
	defer srv.Close()

	parser := NewHTMLParser()

	items, err := parser.Parse(context.Background(), Source{Id: "page-1", Type: SourceTypeHTML, Url: srv.URL})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "page-1", item.SourceId)
	assert.Contains(t, item.Title, "A Long Read")
	assert.Contains(t, item.Content, "first paragraph")
	assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), item.PublishedAt)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n\tb   c  "))
	assert.Equal(t, "", cleanText("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// a cut inside a multi-byte rune backs off to the rune boundary
	out := truncate("日本語です", 4)
	assert.Equal(t, "日...", out)
	assert.True(t, utf8.ValidString(out))
}

func TestItemIdIsStable(t *testing.T) {
	a := ItemId("https://example.com/post")
	b := ItemId("https://example.com/post")
	c := ItemId("https://example.com/other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
