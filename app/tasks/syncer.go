package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/ygg-feed/app/database"
	"github.com/lysyi3m/ygg-feed/app/feed"
	"github.com/lysyi3m/ygg-feed/app/logger"
)

// PosterResolver is the poster lookup surface the syncer needs.
type PosterResolver interface {
	Resolve(ctx context.Context, category feed.Category, rawTitle string) string
}

// Syncer runs one feed synchronization pass: fetch each category's feed,
// normalize the entries, enrich new items with posters and upsert everything
// into the database.
type Syncer struct {
	directory  *feed.Directory
	parser     *feed.Parser
	resolver   PosterResolver
	itemRepo   database.ItemStore
	httpClient *http.Client
	userAgent  string
	maxAge     time.Duration
}

func NewSyncer(directory *feed.Directory, parser *feed.Parser, resolver PosterResolver,
	itemRepo database.ItemStore, userAgent string, maxAge time.Duration) *Syncer {
	if maxAge <= 0 {
		maxAge = database.DefaultPurgeMaxAge
	}
	return &Syncer{
		directory:  directory,
		parser:     parser,
		resolver:   resolver,
		itemRepo:   itemRepo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
		maxAge:     maxAge,
	}
}

// SyncAll synchronizes every category in order, purges expired items and
// logs the per-category summary. One failing category does not stop the
// pass.
func (s *Syncer) SyncAll(ctx context.Context) {
	start := time.Now()
	counts := make(map[feed.Category]int, len(feed.AllCategories()))

	for _, category := range feed.AllCategories() {
		select {
		case <-ctx.Done():
			slog.Warn("Sync pass interrupted", "category", category)
			return
		default:
		}

		count, err := s.SyncCategory(ctx, category)
		if err != nil {
			slog.Error("Category sync failed", "category", category, "error", err)
		}
		counts[category] = count
	}

	purged, err := s.itemRepo.PurgeOlderThan(s.maxAge)
	if err != nil {
		slog.Error("Purge failed", "error", err)
	}

	slog.Info("Sync pass completed",
		"duration", time.Since(start).Round(time.Millisecond).String(),
		"film", counts[feed.CategoryFilm],
		"series", counts[feed.CategorySeries],
		"emissions", counts[feed.CategoryEmissions],
		"spectacle", counts[feed.CategorySpectacle],
		"animation", counts[feed.CategoryAnimation],
		"games", counts[feed.CategoryGames],
		"purged", purged)
}

// SyncCategory fetches and upserts one category's feed, returning the number
// of entries successfully stored or refreshed.
func (s *Syncer) SyncCategory(ctx context.Context, category feed.Category) (int, error) {
	url, err := s.directory.URL(category)
	if err != nil {
		return 0, err
	}

	data, err := s.fetchFeed(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch feed: %w", err)
	}

	entries, err := s.parser.Run(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse feed: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if err := s.syncEntry(ctx, category, entry); err != nil {
			slog.Warn("Entry sync failed", "category", category, "title", entry.RawTitle, "error", err)
			continue
		}
		count++
	}

	slog.Debug("Category synced", "category", category, "entries", len(entries), "stored", count)
	return count, nil
}

func (s *Syncer) syncEntry(ctx context.Context, category feed.Category, entry feed.Entry) error {
	guid := entry.GUID
	if guid == "" {
		guid = entry.Link
	}
	if guid == "" {
		guid = entry.RawTitle
	}
	if guid == "" {
		return fmt.Errorf("entry has no usable identifier")
	}

	pageLink := entry.Link
	if pageLink == "" && strings.Contains(entry.GUID, "http") {
		pageLink = entry.GUID
	}
	downloadLink := entry.EnclosureURL
	if downloadLink == "" {
		downloadLink = pageLink
	}

	meta := feed.ExtractMeta(entry.Text)

	seeders := 0
	switch {
	case entry.Seeders >= 0:
		seeders = entry.Seeders
	case meta.HasSeeders:
		seeders = meta.Seeders
	}

	// The description carries the tracker's own "Taille" and "Ajouté le"
	// values, which take precedence over the feed's structured fields.
	size := meta.Size
	if size == "" {
		size = entry.Size
	}

	// The display date comes from the description text only; the feed's
	// uploaded_at is just a timestamp fallback.
	addedAt := meta.AddedAt
	addedAtTs := feed.TimestampFromYggDate(addedAt)
	if addedAtTs == 0 {
		addedAtTs = feed.TimestampFromDate(entry.UploadedAt)
	}
	if addedAtTs == 0 && entry.PublishedAt != nil {
		addedAtTs = entry.PublishedAt.UnixMilli()
	}

	existing, err := s.itemRepo.GetItemByGUID(guid)
	if err != nil {
		return err
	}

	if existing != nil {
		return s.itemRepo.UpdateItemSyncFields(guid, database.SyncUpdate{
			Size:      size,
			Seeders:   seeders,
			AddedAt:   addedAt,
			AddedAtTs: addedAtTs,
		})
	}

	item := database.Item{
		GUID:         guid,
		Category:     string(category),
		RawTitle:     entry.RawTitle,
		Size:         size,
		Seeders:      seeders,
		Quality:      feed.ExtractQuality(entry.RawTitle),
		AddedAt:      addedAt,
		AddedAtTs:    addedAtTs,
		PageLink:     pageLink,
		DownloadLink: downloadLink,
	}

	item.Title, item.Year = feed.GuessTitleAndYear(entry.RawTitle, category.Kind())
	if category == feed.CategoryGames {
		item.Title = feed.CleanGameTitle(entry.RawTitle)
	} else if category.Kind() == feed.KindSeries {
		item.Episode = feed.ExtractEpisodeInfo(entry.RawTitle)
	}

	if s.resolver != nil {
		item.Poster = s.resolver.Resolve(ctx, category, entry.RawTitle)
	}

	return s.itemRepo.InsertItem(item)
}

func (s *Syncer) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", logger.MaskSecrets(url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", logger.MaskSecrets(url), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	return data, nil
}
