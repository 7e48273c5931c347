package poster

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lysyi3m/ygg-feed/app/feed"
)

// MovieSource finds posters for film and TV titles.
type MovieSource interface {
	SearchPoster(ctx context.Context, mediaType, title string, year int, language string) (string, error)
}

// GameSource finds cover art for game titles.
type GameSource interface {
	SearchCover(ctx context.Context, title string) (string, error)
}

// Resolver turns a raw release title into a poster URL, caching hits and
// misses. A nil source disables that provider; lookups for its categories
// resolve to no poster. Provider errors are logged and treated as misses so
// one flaky upstream cannot stall a sync pass.
type Resolver struct {
	cache  *Cache
	movies MovieSource
	games  GameSource
}

func NewResolver(cache *Cache, movies MovieSource, games GameSource) *Resolver {
	return &Resolver{
		cache:  cache,
		movies: movies,
		games:  games,
	}
}

// Resolve returns a poster URL for the raw title, or "" when none was found.
func (r *Resolver) Resolve(ctx context.Context, category feed.Category, rawTitle string) string {
	key := cacheKey(category, rawTitle)
	if url, ok := r.cache.Get(key); ok {
		return url
	}

	var url string
	if category == feed.CategoryGames {
		url = r.resolveGame(ctx, rawTitle)
	} else {
		url = r.resolveVideo(ctx, category, rawTitle)
	}

	r.cache.Set(key, url)
	return url
}

// cacheKey namespaces game lookups separately so a title that exists both as
// a game and as a film never shares a cache entry.
func cacheKey(category feed.Category, rawTitle string) string {
	lowered := strings.ToLower(rawTitle)
	if category == feed.CategoryGames {
		return "igdb::" + lowered
	}
	return string(category) + "::" + lowered
}

func (r *Resolver) resolveGame(ctx context.Context, rawTitle string) string {
	if r.games == nil {
		return ""
	}

	for _, query := range feed.GameSearchQueries(rawTitle) {
		url, err := r.games.SearchCover(ctx, query)
		if err != nil {
			slog.Debug("IGDB lookup failed", "query", query, "error", err)
			continue
		}
		if url != "" {
			return url
		}
	}

	return ""
}

type searchAttempt struct {
	mediaType string
	query     string
	year      int
	language  string
}

func (r *Resolver) resolveVideo(ctx context.Context, category feed.Category, rawTitle string) string {
	if r.movies == nil {
		return ""
	}

	title, year := feed.GuessTitleAndYear(rawTitle, category.Kind())
	if title == "" {
		return ""
	}

	// Series categories search TV only, the rest movies only; the two
	// types meet solely in the raw last-resort attempts.
	var attempts []searchAttempt
	if category.Kind() == feed.KindSeries {
		if year > 0 {
			attempts = append(attempts, searchAttempt{"tv", title, year, "fr-FR"})
		}
		attempts = append(attempts,
			searchAttempt{"tv", title, 0, "fr-FR"},
			searchAttempt{"tv", title, 0, "en-US"},
		)
	} else {
		if year > 0 {
			attempts = append(attempts, searchAttempt{"movie", title, year, "fr-FR"})
		}
		attempts = append(attempts,
			searchAttempt{"movie", title, 0, "fr-FR"},
			searchAttempt{"movie", title, year, "en-US"},
		)
	}

	// last resort: search the cleaned raw title itself
	if cleaned := cleanRawTitle(rawTitle); cleaned != "" && !strings.EqualFold(cleaned, title) {
		attempts = append(attempts,
			searchAttempt{"movie", cleaned, 0, "fr-FR"},
			searchAttempt{"tv", cleaned, 0, "fr-FR"},
		)
	}

	for _, attempt := range attempts {
		url, err := r.movies.SearchPoster(ctx, attempt.mediaType, attempt.query, attempt.year, attempt.language)
		if err != nil {
			slog.Debug("TMDB lookup failed", "query", attempt.query, "error", err)
			continue
		}
		if url != "" {
			return url
		}
	}

	return ""
}

// cleanRawTitle strips separators from a raw release name without applying
// the tag heuristics, for the last-resort search.
func cleanRawTitle(rawTitle string) string {
	cleaned := strings.NewReplacer(".", " ", "_", " ").Replace(rawTitle)
	return strings.Join(strings.Fields(cleaned), " ")
}
