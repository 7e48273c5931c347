package database

// Item represents one indexed torrent in the database. GUID is unique across
// all categories; a release that reappears in the feed updates its row in
// place.
type Item struct {
	ID       int64
	GUID     string
	Category string
	RawTitle string
	Title    string
	Year     int
	Episode  string
	Size     string
	Seeders  int
	Quality  string

	// AddedAt is the tracker's "Ajouté le" date as published; AddedAtTs is
	// the same moment in epoch milliseconds, 0 when unknown.
	AddedAt   string
	AddedAtTs int64

	Poster       string
	PageLink     string
	DownloadLink string

	CreatedAt string
	UpdatedAt string
}

// SyncUpdate carries the mutable fields a sync pass may refresh on an
// existing item. Zero values mean "leave the stored value alone", except
// Seeders which always overwrites. Posters are resolved once, on insert.
type SyncUpdate struct {
	Size      string
	Seeders   int
	AddedAt   string
	AddedAtTs int64
}
