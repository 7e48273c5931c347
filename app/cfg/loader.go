package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server
	Port      string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	PublicDir string `long:"public-dir" env:"PUBLIC_DIR" default:"./public" description:"Directory with the static front-end (optional)"`

	// Feed source
	Passkey         string `long:"rss-passkey" env:"RSS_PASSKEY" description:"Tracker RSS passkey (required)" required:"true"`
	FeedBaseURL     string `long:"rss-base-url" env:"RSS_BASE_URL" default:"https://yggapi.eu/rss" description:"Base URL of the tracker RSS endpoint"`
	MoviesFeedID    string `long:"rss-movies-id" env:"RSS_MOVIES_ID" default:"2183" description:"Feed ID for the film category"`
	SeriesFeedID    string `long:"rss-series-id" env:"RSS_SERIES_ID" default:"2184" description:"Feed ID for the series category"`
	ShowsFeedID     string `long:"rss-shows-id" env:"RSS_SHOWS_ID" default:"2182" description:"Feed ID for the emissions category"`
	SpectacleFeedID string `long:"rss-spectacle-id" env:"RSS_SPECTACLE_ID" default:"2185" description:"Feed ID for the spectacle category"`
	AnimationFeedID string `long:"rss-animation-id" env:"RSS_ANIMATION_ID" default:"2178" description:"Feed ID for the animation category"`
	GamesFeedID     string `long:"rss-games-id" env:"RSS_GAMES_ID" default:"2161" description:"Feed ID for the games category"`
	CategoriesFile  string `long:"categories-file" env:"CATEGORIES_FILE" description:"Optional YAML file overriding category feed IDs"`

	// Poster providers
	TMDBAPIKey       string `long:"tmdb-api-key" env:"TMDB_API_KEY" description:"TMDB API key (poster lookup disabled when empty)"`
	IGDBClientID     string `long:"igdb-client-id" env:"IGDB_CLIENT_ID" description:"IGDB/Twitch client ID (game covers disabled when empty)"`
	IGDBClientSecret string `long:"igdb-client-secret" env:"IGDB_CLIENT_SECRET" description:"IGDB/Twitch client secret"`

	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./yggfeed.db" description:"SQLite database path"`

	// Sync
	SyncInterval int `long:"sync-interval" env:"SYNC_INTERVAL_MINUTES" default:"10" description:"Sync interval in minutes (<= 0 disables periodic sync)"`
	MaxAgeHours  int `long:"max-age-hours" env:"MAX_AGE_HOURS" default:"48" description:"Retention horizon applied after each sync pass, in hours"`

	// Logging
	LogFile      string `long:"log-file" env:"LOG_FILE" default:"./yggfeed.log" description:"Log file path"`
	LogMaxSizeMB int    `long:"log-max-size" env:"LOG_MAX_SIZE_MB" default:"5" description:"Log file size before rotation, in megabytes"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"ygg-feed/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Europe/Paris" description:"Timezone for feed-reported dates (e.g. Europe/Paris, UTC)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:             raw.Port,
		PublicDir:        raw.PublicDir,
		Passkey:          raw.Passkey,
		FeedBaseURL:      raw.FeedBaseURL,
		MoviesFeedID:     raw.MoviesFeedID,
		SeriesFeedID:     raw.SeriesFeedID,
		ShowsFeedID:      raw.ShowsFeedID,
		SpectacleFeedID:  raw.SpectacleFeedID,
		AnimationFeedID:  raw.AnimationFeedID,
		GamesFeedID:      raw.GamesFeedID,
		CategoriesFile:   raw.CategoriesFile,
		TMDBAPIKey:       raw.TMDBAPIKey,
		IGDBClientID:     raw.IGDBClientID,
		IGDBClientSecret: raw.IGDBClientSecret,
		DBPath:           raw.DBPath,
		SyncInterval:     raw.SyncInterval,
		MaxAgeHours:      raw.MaxAgeHours,
		LogFile:          raw.LogFile,
		LogMaxSizeMB:     raw.LogMaxSizeMB,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
