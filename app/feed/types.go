package feed

import "time"

// Category is one of the six fixed content buckets the service tracks.
type Category string

const (
	CategoryFilm      Category = "film"
	CategorySeries    Category = "series"
	CategoryEmissions Category = "emissions"
	CategorySpectacle Category = "spectacle"
	CategoryAnimation Category = "animation"
	CategoryGames     Category = "games"
)

// AllCategories returns the categories in the fixed order sync passes use.
func AllCategories() []Category {
	return []Category{
		CategoryFilm,
		CategorySeries,
		CategoryEmissions,
		CategorySpectacle,
		CategoryAnimation,
		CategoryGames,
	}
}

// Label returns the display label used by the front-end.
func (c Category) Label() string {
	switch c {
	case CategoryFilm:
		return "Films"
	case CategorySeries:
		return "Séries TV"
	case CategoryEmissions:
		return "Émissions TV"
	case CategorySpectacle:
		return "Spectacles"
	case CategoryAnimation:
		return "Animation"
	case CategoryGames:
		return "Jeux vidéo"
	}
	return string(c)
}

// Kind selects which normalization rules apply to a raw title.
type Kind string

const (
	KindFilm   Kind = "film"
	KindSeries Kind = "series"
)

// Kind maps the category to its normalization kind. Animation and spectacle
// titles follow movie naming conventions.
func (c Category) Kind() Kind {
	if c == CategorySeries || c == CategoryEmissions {
		return KindSeries
	}
	return KindFilm
}

// Entry is one parsed feed item, before normalization and upsert.
type Entry struct {
	RawTitle     string
	GUID         string
	Link         string
	EnclosureURL string

	// Text is the concatenated free-text fields of the item (description,
	// content). The tracker embeds the authoritative upload date, size and
	// seeder count in there.
	Text string

	// Structured fields the tracker exposes as custom RSS elements. Seeders
	// is -1 when the field is absent or non-numeric.
	Size       string
	Seeders    int
	UploadedAt string

	PublishedAt *time.Time
}
