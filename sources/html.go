package sources

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

type htmlParser struct {
	options Options
	client  *http.Client
}

// Parse scrapes a single page: readability extracts the main article text,
// goquery picks up the title and meta fields readability misses.
func (p *htmlParser) Parse(ctx context.Context, src Source) ([]Item, error) {
	body, err := fetch(ctx, p.client, p.options.UserAgent, src.Url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 4<<20))
	if err != nil {
		return nil, err
	}

	pageUrl, err := url.Parse(src.Url)
	if err != nil {
		return nil, err
	}

	item := Item{
		Id:        ItemId(src.Url),
		SourceId:  src.Id,
		Url:       src.Url,
		FetchedAt: time.Now().UTC(),
	}

	if article, err := readability.FromReader(bytes.NewReader(raw), pageUrl); err == nil {
		item.Title = cleanText(article.Title)
		item.Content = cleanText(article.TextContent)
		item.Summary = truncate(cleanText(article.Excerpt), 1000)
		item.Author = cleanText(article.Byline)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		if len(item.Content) == 0 {
			return nil, err
		}
		return []Item{item}, nil
	}

	if len(item.Title) == 0 {
		item.Title = cleanText(doc.Find("title").First().Text())
	}
	if len(item.Summary) == 0 {
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			item.Summary = truncate(cleanText(desc), 1000)
		}
	}
	if len(item.Author) == 0 {
		if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok {
			item.Author = cleanText(author)
		}
	}
	if len(item.Content) == 0 {
		item.Content = cleanText(doc.Find("body").Text())
	}

	if published, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		if ts, err := time.Parse(time.RFC3339, published); err == nil {
			item.PublishedAt = ts.UTC()
		}
	}

	if len(item.Title) == 0 && len(item.Content) == 0 {
		return nil, nil
	}

	return []Item{item}, nil
}

func NewHTMLParser(opts ...Option) Parser {
	options := NewOptions(opts...)

	return &htmlParser{
		options: options,
		client:  &http.Client{Timeout: options.HTTPTimeout},
	}
}
