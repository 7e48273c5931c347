package feed

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NormalizeCategoryKey maps a loosely spelled category key (from the API or
// internal callers) to a canonical Category. Unknown keys default to film.
func NormalizeCategoryKey(raw string) Category {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return CategoryFilm
	}

	switch {
	case strings.HasPrefix(c, "film"):
		return CategoryFilm
	case strings.HasPrefix(c, "seri"):
		return CategorySeries
	case strings.HasPrefix(c, "emiss"), strings.HasPrefix(c, "émiss"):
		return CategoryEmissions
	case strings.HasPrefix(c, "spect"):
		return CategorySpectacle
	case strings.HasPrefix(c, "anim"):
		return CategoryAnimation
	case strings.HasPrefix(c, "jeu"), strings.HasPrefix(c, "game"):
		return CategoryGames
	}

	return CategoryFilm
}

// Directory maps categories to the tracker feed IDs and builds the
// passkey-bearing feed URLs. The passkey must never appear unmasked in logs;
// URLs are only logged through the masking handler.
type Directory struct {
	baseURL string
	passkey string
	ids     map[Category]string
}

type DirectoryConfig struct {
	BaseURL     string
	Passkey     string
	MoviesID    string
	SeriesID    string
	ShowsID     string
	SpectacleID string
	AnimationID string
	GamesID     string
}

func NewDirectory(config DirectoryConfig) *Directory {
	return &Directory{
		baseURL: config.BaseURL,
		passkey: config.Passkey,
		ids: map[Category]string{
			CategoryFilm:      config.MoviesID,
			CategorySeries:    config.SeriesID,
			CategoryEmissions: config.ShowsID,
			CategorySpectacle: config.SpectacleID,
			CategoryAnimation: config.AnimationID,
			CategoryGames:     config.GamesID,
		},
	}
}

// LoadOverrides replaces feed IDs from a YAML file mapping category keys to
// feed IDs. Missing file is not an error; unknown keys are skipped with a
// warning.
func (d *Directory) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read categories file: %w", err)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse categories file: %w", err)
	}

	for key, id := range overrides {
		cat := NormalizeCategoryKey(key)
		if string(cat) != strings.ToLower(strings.TrimSpace(key)) {
			slog.Warn("Categories file key normalized", "key", key, "category", cat)
		}
		if id == "" {
			continue
		}
		d.ids[cat] = id
		slog.Debug("Feed ID override applied", "category", cat, "id", id)
	}

	return nil
}

// FeedID returns the configured feed ID for a category.
func (d *Directory) FeedID(cat Category) (string, error) {
	id, ok := d.ids[cat]
	if !ok || id == "" {
		return "", fmt.Errorf("no feed ID configured for category %q", cat)
	}
	return id, nil
}

// URL builds the full feed URL for a category, passkey included.
func (d *Directory) URL(cat Category) (string, error) {
	id, err := d.FeedID(cat)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s?id=%s&passkey=%s", d.baseURL, id, d.passkey), nil
}
