package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Parser turns a configured source into items. Implementations must bound
// their network calls with the request context.
type Parser interface {
	Parse(ctx context.Context, src Source) ([]Item, error)
}

func fetch(ctx context.Context, client *http.Client, userAgent string, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	rsp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if rsp.StatusCode != http.StatusOK {
		rsp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", rsp.StatusCode, url)
	}

	return rsp.Body, nil
}

func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	// never split a multi-byte rune
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max] + "..."
}
