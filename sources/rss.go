package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

type rssParser struct {
	options Options
	client  *http.Client
	parser  *gofeed.Parser
}

func (p *rssParser) Parse(ctx context.Context, src Source) ([]Item, error) {
	body, err := fetch(ctx, p.client, p.options.UserAgent, src.Url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := p.parser.Parse(body)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(feed.Items))

	for _, entry := range feed.Items {
		if len(entry.Link) == 0 {
			continue
		}

		item := Item{
			Id:        ItemId(entry.Link),
			SourceId:  src.Id,
			Title:     cleanText(entry.Title),
			Url:       entry.Link,
			Summary:   truncate(cleanText(entry.Description), 1000),
			Content:   cleanText(entry.Content),
			Tags:      entry.Categories,
			FetchedAt: time.Now().UTC(),
		}

		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = entry.UpdatedParsed.UTC()
		}

		if len(entry.Authors) > 0 && entry.Authors[0] != nil {
			item.Author = entry.Authors[0].Name
		}

		// some feeds only carry a description
		if len(item.Content) == 0 {
			item.Content = item.Summary
		}

		items = append(items, item)
	}

	return items, nil
}

func NewRSSParser(opts ...Option) Parser {
	options := NewOptions(opts...)

	return &rssParser{
		options: options,
		client:  &http.Client{Timeout: options.HTTPTimeout},
		parser:  gofeed.NewParser(),
	}
}
