package api

import (
	"context"

	"github.com/lysyi3m/ygg-feed/app/database"
	"github.com/lysyi3m/ygg-feed/app/poster"
)

// DetailsSource provides on-demand title metadata for the details endpoint.
type DetailsSource interface {
	Lookup(ctx context.Context, mediaType, title string, year int) (*poster.Details, error)
}

type Handler struct {
	itemRepo database.ItemStore
	details  DetailsSource
	logFile  string
	version  string
}

// feedItem is the JSON shape of one indexed torrent as the front-end
// consumes it.
type feedItem struct {
	GUID      string `json:"guid"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	RawTitle  string `json:"rawTitle"`
	Year      int    `json:"year,omitempty"`
	Episode   string `json:"episode,omitempty"`
	Size      string `json:"size"`
	Seeders   int    `json:"seeders"`
	Quality   string `json:"quality"`
	AddedAt   string `json:"addedAt"`
	AddedAtTs int64  `json:"addedAtTs"`
	Poster    string `json:"poster"`
	PageLink  string `json:"pageLink"`
	Download  string `json:"download"`
}

func toFeedItem(item database.Item) feedItem {
	return feedItem{
		GUID:      item.GUID,
		Category:  item.Category,
		Title:     item.Title,
		RawTitle:  item.RawTitle,
		Year:      item.Year,
		Episode:   item.Episode,
		Size:      item.Size,
		Seeders:   item.Seeders,
		Quality:   item.Quality,
		AddedAt:   item.AddedAt,
		AddedAtTs: item.AddedAtTs,
		Poster:    item.Poster,
		PageLink:  item.PageLink,
		Download:  item.DownloadLink,
	}
}
