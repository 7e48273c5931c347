package feed

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses raw feed data into entries, keeping titles untouched. Category
// knowledge lives with the caller; the parser only lifts structured and
// free-text fields out of the feed.
func (p *Parser) Run(data []byte) ([]Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, p.normalizeEntry(item))
	}

	return entries, nil
}

func (p *Parser) normalizeEntry(item *gofeed.Item) Entry {
	entry := Entry{
		RawTitle: item.Title,
		GUID:     item.GUID,
		Link:     item.Link,
		Text:     joinItemText(item),
		Seeders:  -1,
	}

	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		entry.EnclosureURL = item.Enclosures[0].URL
	}

	if item.PublishedParsed != nil {
		entry.PublishedAt = item.PublishedParsed
	}

	entry.Size = customField(item, "size")
	entry.UploadedAt = customField(item, "uploaded_at")

	if raw := customField(item, "seeders"); raw != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			entry.Seeders = n
		}
	}

	return entry
}

// customField reads a tracker-specific item field, either as a flat custom
// element or under the tracker's XML namespace (e.g. <ygg:seeders>).
func customField(item *gofeed.Item, name string) string {
	if v, ok := item.Custom[name]; ok && v != "" {
		return v
	}
	if ns, ok := item.Extensions["ygg"]; ok {
		if values, ok := ns[name]; ok && len(values) > 0 {
			return values[0].Value
		}
	}
	return ""
}

// joinItemText concatenates the free-text fields of an item into one
// whitespace-collapsed string for labeled-text extraction.
func joinItemText(item *gofeed.Item) string {
	parts := make([]string, 0, 2)
	if item.Description != "" {
		parts = append(parts, item.Description)
	}
	if item.Content != "" {
		parts = append(parts, item.Content)
	}
	joined := strings.Join(parts, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(joined, " "))
}
