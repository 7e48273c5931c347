package feed

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Meta holds the fields recovered from an entry's free text. The tracker
// writes the authoritative upload date and size into the item description;
// the structured RSS fields for these are frequently missing.
type Meta struct {
	AddedAt string // "DD/MM/YYYY HH:MM:SS", empty when not found
	Size    string // e.g. "1.4GB", empty when not found
	Seeders int
	// HasSeeders reports whether a seeder count was present in the text;
	// callers must not confuse an absent count with zero seeders.
	HasSeeders bool
}

var (
	metaAddedRe        = regexp.MustCompile(`(?i)Ajouté le\s*:\s*([0-9]{2}/[0-9]{2}/[0-9]{4}\s+[0-9]{2}:[0-9]{2}:[0-9]{2})`)
	metaSizeRe         = regexp.MustCompile(`(?i)Taille(?:\s+de l'upload)?\s*:\s*([0-9.,]+\s*[A-Za-z]+)\b`)
	metaSizeFallbackRe = regexp.MustCompile(`(?i)Taille[^0-9]*([0-9.,]+\s*[A-Za-z]+)`)
	metaSeedersRe      = regexp.MustCompile(`(?i)([0-9]+)\s*seeders?`)
)

// ExtractMeta scans an entry's combined free-text fields for the labeled
// upload date, size and seeder count. Fields not found are left at their
// zero values; callers fall back to the feed's structured fields.
func ExtractMeta(text string) Meta {
	var meta Meta

	if m := metaAddedRe.FindStringSubmatch(text); m != nil {
		meta.AddedAt = m[1]
	}

	if m := metaSizeRe.FindStringSubmatch(text); m != nil {
		meta.Size = spaceRe.ReplaceAllString(m[1], "")
	} else if m := metaSizeFallbackRe.FindStringSubmatch(text); m != nil {
		meta.Size = spaceRe.ReplaceAllString(m[1], "")
	}

	if m := metaSeedersRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			meta.Seeders = n
			meta.HasSeeders = true
		}
	}

	return meta
}

var yggDateRe = regexp.MustCompile(`^([0-9]{2})/([0-9]{2})/([0-9]{4})\s+([0-9]{2}):([0-9]{2}):([0-9]{2})$`)

// TimestampFromYggDate converts a strict "DD/MM/YYYY HH:MM:SS" date to epoch
// milliseconds in the configured local timezone. Returns 0 on any format
// mismatch; 0 means "unknown", never the epoch.
func TimestampFromYggDate(s string) int64 {
	m := yggDateRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
	return t.UnixMilli()
}

var feedDateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// TimestampFromDate parses a free-form feed date, as written in uploaded_at
// or pubDate fields, and returns epoch milliseconds. Returns 0 when no
// known layout matches.
func TimestampFromDate(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
