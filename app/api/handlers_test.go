package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/ygg-feed/app/database"
	"github.com/lysyi3m/ygg-feed/app/poster"
)

type fakeItemStore struct {
	items     map[string][]database.Item
	lastSort  string
	lastLimit int
	err       error
}

func (f *fakeItemStore) GetItemByGUID(guid string) (*database.Item, error) { return nil, nil }
func (f *fakeItemStore) InsertItem(item database.Item) error              { return nil }
func (f *fakeItemStore) UpdateItemSyncFields(guid string, update database.SyncUpdate) error {
	return nil
}
func (f *fakeItemStore) GetItemCount(category string) (int, error)       { return 0, nil }
func (f *fakeItemStore) PurgeOlderThan(time.Duration) (int64, error)     { return 0, nil }
func (f *fakeItemStore) GetItems(category, sort string, limit int) ([]database.Item, error) {
	f.lastSort = sort
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.items[category], nil
}

type fakeDetailsSource struct {
	details       *poster.Details
	err           error
	lastMediaType string
}

func (f *fakeDetailsSource) Lookup(_ context.Context, mediaType, title string, year int) (*poster.Details, error) {
	f.lastMediaType = mediaType
	return f.details, f.err
}

func newTestServer(store *fakeItemStore, details DetailsSource, logFile, publicDir string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(store, details, logFile, "1.2.3")
	return NewServer(handler, publicDir)
}

func doRequest(t *testing.T, server *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	server.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		json.Unmarshal(w.Body.Bytes(), &body)
	}
	return w, body
}

func TestGetFeedSingleCategory(t *testing.T) {
	store := &fakeItemStore{items: map[string][]database.Item{
		"film": {{
			GUID:         "g1",
			Category:     "film",
			Title:        "Dune Part Two",
			RawTitle:     "Dune.Part.Two.2024",
			Year:         2024,
			Seeders:      42,
			DownloadLink: "https://tracker.example/dl/1",
		}},
	}}
	server := newTestServer(store, nil, "", "")

	w, body := doRequest(t, server, "/api/feed?category=film&sort=date&limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["category"] != "film" || body["label"] != "Films" {
		t.Errorf("category = %v, label = %v", body["category"], body["label"])
	}
	if store.lastSort != "date" || store.lastLimit != 10 {
		t.Errorf("sort = %q, limit = %d", store.lastSort, store.lastLimit)
	}

	items := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items count = %d", len(items))
	}
	item := items[0].(map[string]any)
	if item["title"] != "Dune Part Two" {
		t.Errorf("title = %v", item["title"])
	}
	if item["download"] != "https://tracker.example/dl/1" {
		t.Errorf("download = %v, want the download link under the \"download\" key", item["download"])
	}
}

func TestGetFeedNormalizesCategory(t *testing.T) {
	store := &fakeItemStore{items: map[string][]database.Item{
		"games": {{GUID: "g1", Category: "games", Title: "Hades II"}},
	}}
	server := newTestServer(store, nil, "", "")

	w, body := doRequest(t, server, "/api/feed?category=jeux")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["category"] != "games" {
		t.Errorf("category = %v, want games", body["category"])
	}
}

func TestGetFeedAllCategories(t *testing.T) {
	store := &fakeItemStore{items: map[string][]database.Item{}}
	server := newTestServer(store, nil, "", "")

	w, body := doRequest(t, server, "/api/feed")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	groups := body["groups"].([]any)
	if len(groups) != 6 {
		t.Errorf("groups count = %d, want 6", len(groups))
	}
	first := groups[0].(map[string]any)
	if first["category"] != "film" {
		t.Errorf("first group = %v, want film", first["category"])
	}
}

func TestGetFeedLimitClamped(t *testing.T) {
	store := &fakeItemStore{items: map[string][]database.Item{}}
	server := newTestServer(store, nil, "", "")

	doRequest(t, server, "/api/feed?category=film&limit=9999")
	if store.lastLimit != maxFeedLimit {
		t.Errorf("limit = %d, want clamped to %d", store.lastLimit, maxFeedLimit)
	}

	doRequest(t, server, "/api/feed?category=film&limit=bogus")
	if store.lastLimit != defaultFeedLimit {
		t.Errorf("limit = %d, want default %d", store.lastLimit, defaultFeedLimit)
	}

	doRequest(t, server, "/api/feed?category=film&limit=all")
	if store.lastLimit != -1 {
		t.Errorf("limit = %d, want -1 for limit=all", store.lastLimit)
	}
}

func TestGetFeedDatabaseError(t *testing.T) {
	store := &fakeItemStore{err: errors.New("disk on fire")}
	server := newTestServer(store, nil, "", "")

	w, _ := doRequest(t, server, "/api/feed?category=film")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestGetCategories(t *testing.T) {
	server := newTestServer(&fakeItemStore{}, nil, "", "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var categories []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &categories); err != nil {
		t.Fatal(err)
	}
	if len(categories) != 7 {
		t.Fatalf("categories count = %d, want 7", len(categories))
	}
	if categories[0]["key"] != "all" || categories[0]["label"] != "Tout" {
		t.Errorf("first category = %v", categories[0])
	}
	if categories[1]["key"] != "film" || categories[1]["label"] != "Films" {
		t.Errorf("second category = %v", categories[1])
	}
}

func TestGetDetails(t *testing.T) {
	details := &fakeDetailsSource{details: &poster.Details{Title: "Dune: Part Two", Year: "2024"}}
	server := newTestServer(&fakeItemStore{}, details, "", "")

	w, body := doRequest(t, server, "/api/details?title=Dune+Part+Two&year=2024")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["title"] != "Dune: Part Two" || body["year"] != "2024" {
		t.Errorf("body = %v", body)
	}
	if details.lastMediaType != "movie" {
		t.Errorf("media type = %q, want movie", details.lastMediaType)
	}
}

func TestGetDetailsCategorySelectsMediaType(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"series", "tv"},
		{"Series TV", "tv"},
		{"film", "movie"},
		{"emissions", "movie"},
		{"", "movie"},
	}

	for _, tt := range tests {
		details := &fakeDetailsSource{details: &poster.Details{Title: "Any"}}
		server := newTestServer(&fakeItemStore{}, details, "", "")

		path := "/api/details?title=Any&category=" + url.QueryEscape(tt.category)
		if w, _ := doRequest(t, server, path); w.Code != http.StatusOK {
			t.Fatalf("category %q: status = %d", tt.category, w.Code)
		}
		if details.lastMediaType != tt.want {
			t.Errorf("category %q: media type = %q, want %q", tt.category, details.lastMediaType, tt.want)
		}
	}
}

func TestGetDetailsMissingTitle(t *testing.T) {
	server := newTestServer(&fakeItemStore{}, &fakeDetailsSource{}, "", "")

	w, _ := doRequest(t, server, "/api/details")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetDetailsNotConfigured(t *testing.T) {
	server := newTestServer(&fakeItemStore{}, nil, "", "")

	w, _ := doRequest(t, server, "/api/details?title=Any")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestGetDetailsNoMatch(t *testing.T) {
	server := newTestServer(&fakeItemStore{}, &fakeDetailsSource{}, "", "")

	w, _ := doRequest(t, server, "/api/details?title=Unknown")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetDetailsUpstreamError(t *testing.T) {
	details := &fakeDetailsSource{err: errors.New("rate limited")}
	server := newTestServer(&fakeItemStore{}, details, "", "")

	w, _ := doRequest(t, server, "/api/details?title=Any")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestGetLogs(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "service.log")
	if err := os.WriteFile(logFile, []byte("line one\nline two\nline three\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	server := newTestServer(&fakeItemStore{}, nil, logFile, "")

	w, body := doRequest(t, server, "/api/logs?limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	lines := body["lines"].([]any)
	if len(lines) != 2 {
		t.Fatalf("lines count = %d, want 2", len(lines))
	}
	if lines[0] != "line three" {
		t.Errorf("lines[0] = %v, want newest first", lines[0])
	}
}

func TestGetVersion(t *testing.T) {
	server := newTestServer(&fakeItemStore{}, nil, "", "")

	w, body := doRequest(t, server, "/version")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["version"] != "1.2.3" {
		t.Errorf("version = %v", body["version"])
	}
}

func TestStaticFallback(t *testing.T) {
	publicDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<html>front</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(publicDir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	server := newTestServer(&fakeItemStore{}, nil, "", publicDir)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if w.Code != http.StatusOK || w.Body.String() != "console.log(1)" {
		t.Errorf("static file: status = %d, body = %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/some/spa/route", nil))
	if w.Code != http.StatusOK || w.Body.String() != "<html>front</html>" {
		t.Errorf("spa fallback: status = %d, body = %q", w.Code, w.Body.String())
	}
}
