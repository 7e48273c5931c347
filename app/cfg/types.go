package cfg

type Cfg struct {
	// HTTP server
	Port      string
	PublicDir string

	// Feed source
	Passkey         string
	FeedBaseURL     string
	MoviesFeedID    string
	SeriesFeedID    string
	ShowsFeedID     string
	SpectacleFeedID string
	AnimationFeedID string
	GamesFeedID     string
	CategoriesFile  string

	// Poster providers
	TMDBAPIKey       string
	IGDBClientID     string
	IGDBClientSecret string

	// Storage
	DBPath string

	// Sync
	SyncInterval int // minutes, <= 0 disables the periodic sync
	MaxAgeHours  int

	// Logging
	LogFile      string
	LogMaxSizeMB int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
