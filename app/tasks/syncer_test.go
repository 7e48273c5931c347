package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/ygg-feed/app/database"
	"github.com/lysyi3m/ygg-feed/app/feed"
)

type fakeItemStore struct {
	items   map[string]database.Item
	updates map[string]database.SyncUpdate
	purged  time.Duration
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{
		items:   make(map[string]database.Item),
		updates: make(map[string]database.SyncUpdate),
	}
}

func (f *fakeItemStore) GetItemByGUID(guid string) (*database.Item, error) {
	if item, ok := f.items[guid]; ok {
		return &item, nil
	}
	return nil, nil
}

func (f *fakeItemStore) InsertItem(item database.Item) error {
	if _, ok := f.items[item.GUID]; ok {
		return fmt.Errorf("duplicate guid %q", item.GUID)
	}
	f.items[item.GUID] = item
	return nil
}

func (f *fakeItemStore) UpdateItemSyncFields(guid string, update database.SyncUpdate) error {
	f.updates[guid] = update
	return nil
}

func (f *fakeItemStore) GetItems(category string, sort string, limit int) ([]database.Item, error) {
	return nil, nil
}

func (f *fakeItemStore) GetItemCount(category string) (int, error) {
	return len(f.items), nil
}

func (f *fakeItemStore) PurgeOlderThan(maxAge time.Duration) (int64, error) {
	f.purged = maxAge
	return 0, nil
}

type fakeResolver struct {
	calls []string
	url   string
}

func (f *fakeResolver) Resolve(_ context.Context, category feed.Category, rawTitle string) string {
	f.calls = append(f.calls, string(category)+"/"+rawTitle)
	return f.url
}

const syncTestFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ygg="https://yggapi.eu/ns">
  <channel>
    <title>Torrents</title>
    <item>
      <title>Dune.Part.Two.2024.MULTI.1080p.x265</title>
      <guid>https://tracker.example/torrent/1</guid>
      <link>https://tracker.example/torrent/1</link>
      <description>Ajouté le : 14/03/2024 18:22:05 | Taille : 1.4 GB</description>
      <enclosure url="https://tracker.example/dl/1" type="application/x-bittorrent" length="1500000000"/>
      <ygg:seeders>42</ygg:seeders>
      <ygg:size>1500000000</ygg:size>
      <ygg:uploaded_at>2024-03-10T10:00:00Z</ygg:uploaded_at>
    </item>
    <item>
      <title>Fallback.Movie.2020</title>
      <link>https://tracker.example/torrent/2</link>
      <description>3 seeders</description>
      <ygg:uploaded_at>2020-05-01T12:00:00Z</ygg:uploaded_at>
    </item>
  </channel>
</rss>`

func newSyncTestServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newTestSyncer(serverURL string, store database.ItemStore, resolver PosterResolver) *Syncer {
	directory := feed.NewDirectory(feed.DirectoryConfig{
		BaseURL:     serverURL,
		Passkey:     "test",
		MoviesID:    "2183",
		SeriesID:    "2184",
		ShowsID:     "2182",
		SpectacleID: "2185",
		AnimationID: "2178",
		GamesID:     "2161",
	})
	return NewSyncer(directory, feed.NewParser(), resolver, store, "test-agent/1.0", 48*time.Hour)
}

func TestSyncCategoryInsertsNewItems(t *testing.T) {
	server, _ := newSyncTestServer(t, syncTestFeed)
	store := newFakeItemStore()
	resolver := &fakeResolver{url: "https://image.example/poster.jpg"}
	syncer := newTestSyncer(server.URL, store, resolver)

	count, err := syncer.SyncCategory(context.Background(), feed.CategoryFilm)
	if err != nil {
		t.Fatalf("SyncCategory() error: %v", err)
	}
	if count != 2 {
		t.Errorf("SyncCategory() = %d, want 2", count)
	}

	item, ok := store.items["https://tracker.example/torrent/1"]
	if !ok {
		t.Fatal("first item was not stored")
	}
	if item.Title != "Dune Part Two" || item.Year != 2024 {
		t.Errorf("Title = %q, Year = %d", item.Title, item.Year)
	}
	if item.Quality != "1080p - x265 / H.265" {
		t.Errorf("Quality = %q", item.Quality)
	}
	if item.Seeders != 42 {
		t.Errorf("Seeders = %d, want the structured field value", item.Seeders)
	}
	// the description's values win over the feed's structured size and
	// upload date
	if item.Size != "1.4GB" {
		t.Errorf("Size = %q, want the description value", item.Size)
	}
	if item.AddedAt != "14/03/2024 18:22:05" {
		t.Errorf("AddedAt = %q, want the description value", item.AddedAt)
	}
	if want := feed.TimestampFromYggDate("14/03/2024 18:22:05"); item.AddedAtTs != want {
		t.Errorf("AddedAtTs = %d, want %d", item.AddedAtTs, want)
	}
	if item.DownloadLink != "https://tracker.example/dl/1" {
		t.Errorf("DownloadLink = %q, want the enclosure URL", item.DownloadLink)
	}
	if item.PageLink != "https://tracker.example/torrent/1" {
		t.Errorf("PageLink = %q", item.PageLink)
	}
	if item.Poster != "https://image.example/poster.jpg" {
		t.Errorf("Poster = %q", item.Poster)
	}

	// second item: guid falls back to link, seeders come from the text,
	// download link falls back to the page link
	fallback, ok := store.items["https://tracker.example/torrent/2"]
	if !ok {
		t.Fatal("fallback item was not stored")
	}
	if fallback.Seeders != 3 {
		t.Errorf("fallback Seeders = %d, want 3 from text", fallback.Seeders)
	}
	if fallback.DownloadLink != "https://tracker.example/torrent/2" {
		t.Errorf("fallback DownloadLink = %q, want the page link", fallback.DownloadLink)
	}
	// without a description date the display date stays empty and the
	// timestamp comes from uploaded_at
	if fallback.AddedAt != "" {
		t.Errorf("fallback AddedAt = %q, want empty", fallback.AddedAt)
	}
	if want := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli(); fallback.AddedAtTs != want {
		t.Errorf("fallback AddedAtTs = %d, want %d", fallback.AddedAtTs, want)
	}
}

func TestSyncCategoryUpdatesExistingItems(t *testing.T) {
	server, _ := newSyncTestServer(t, syncTestFeed)
	store := newFakeItemStore()
	store.items["https://tracker.example/torrent/1"] = database.Item{
		GUID:   "https://tracker.example/torrent/1",
		Poster: "https://image.example/existing.jpg",
	}
	resolver := &fakeResolver{url: "https://image.example/new.jpg"}
	syncer := newTestSyncer(server.URL, store, resolver)

	if _, err := syncer.SyncCategory(context.Background(), feed.CategoryFilm); err != nil {
		t.Fatal(err)
	}

	update, ok := store.updates["https://tracker.example/torrent/1"]
	if !ok {
		t.Fatal("existing item was not updated")
	}
	if update.Seeders != 42 {
		t.Errorf("update Seeders = %d, want 42", update.Seeders)
	}
	if update.Size != "1.4GB" || update.AddedAt != "14/03/2024 18:22:05" {
		t.Errorf("update Size = %q, AddedAt = %q, want the description values", update.Size, update.AddedAt)
	}
	// posters are resolved on insert only; an existing item must not
	// trigger a provider lookup
	for _, call := range resolver.calls {
		if call == "film/Dune.Part.Two.2024.MULTI.1080p.x265" {
			t.Error("existing item triggered a poster lookup")
		}
	}
}

func TestSyncCategoryGames(t *testing.T) {
	gamesFeed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Games</title>
    <item>
      <title>Ready.or.Not.Update.v97150-ElAmigos</title>
      <guid>https://tracker.example/torrent/g1</guid>
    </item>
    <item>
      <title>DOOM.2016.Repack-FitGirl</title>
      <guid>https://tracker.example/torrent/g2</guid>
    </item>
  </channel>
</rss>`
	server, _ := newSyncTestServer(t, gamesFeed)
	store := newFakeItemStore()
	resolver := &fakeResolver{}
	syncer := newTestSyncer(server.URL, store, resolver)

	if _, err := syncer.SyncCategory(context.Background(), feed.CategoryGames); err != nil {
		t.Fatal(err)
	}

	item := store.items["https://tracker.example/torrent/g1"]
	if item.Title != "Ready or Not" {
		t.Errorf("game Title = %q, want cleaned name", item.Title)
	}
	if item.Year != 0 || item.Episode != "" {
		t.Errorf("game Year = %d, Episode = %q, want zero values", item.Year, item.Episode)
	}
	if len(resolver.calls) == 0 || resolver.calls[0] != "games/Ready.or.Not.Update.v97150-ElAmigos" {
		t.Errorf("resolver calls = %v", resolver.calls)
	}

	// a year in the release name is kept on game rows too
	yeared := store.items["https://tracker.example/torrent/g2"]
	if yeared.Title != "DOOM 2016" {
		t.Errorf("game Title = %q", yeared.Title)
	}
	if yeared.Year != 2016 {
		t.Errorf("game Year = %d, want 2016", yeared.Year)
	}
}

func TestSyncCategorySeriesEpisode(t *testing.T) {
	seriesFeed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Series</title>
    <item>
      <title>Breaking.Bad.S05E14.FRENCH.1080p</title>
      <guid>https://tracker.example/torrent/s1</guid>
    </item>
  </channel>
</rss>`
	server, _ := newSyncTestServer(t, seriesFeed)
	store := newFakeItemStore()
	syncer := newTestSyncer(server.URL, store, nil)

	if _, err := syncer.SyncCategory(context.Background(), feed.CategorySeries); err != nil {
		t.Fatal(err)
	}

	item := store.items["https://tracker.example/torrent/s1"]
	if item.Title != "Breaking Bad" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.Episode != "S05E14" {
		t.Errorf("Episode = %q, want S05E14", item.Episode)
	}
}

func TestSyncCategoryFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	store := newFakeItemStore()
	syncer := newTestSyncer(server.URL, store, nil)

	if _, err := syncer.SyncCategory(context.Background(), feed.CategoryFilm); err == nil {
		t.Error("expected error for non-200 feed response")
	}
}

func TestSyncCategoryUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(syncTestFeed))
	}))
	defer server.Close()

	syncer := newTestSyncer(server.URL, newFakeItemStore(), nil)
	if _, err := syncer.SyncCategory(context.Background(), feed.CategoryFilm); err != nil {
		t.Fatal(err)
	}
	if gotUserAgent != "test-agent/1.0" {
		t.Errorf("User-Agent = %q", gotUserAgent)
	}
}

func TestSyncAllPurges(t *testing.T) {
	server, requests := newSyncTestServer(t, syncTestFeed)
	store := newFakeItemStore()
	syncer := newTestSyncer(server.URL, store, nil)

	syncer.SyncAll(context.Background())

	if got := int(requests.Load()); got != len(feed.AllCategories()) {
		t.Errorf("SyncAll() made %d feed requests, want %d", got, len(feed.AllCategories()))
	}
	if store.purged != 48*time.Hour {
		t.Errorf("purge max age = %v, want 48h", store.purged)
	}
}
