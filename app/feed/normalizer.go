package feed

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	bracketRe   = regexp.MustCompile(`\[.*?\]`)
	separatorRe = regexp.MustCompile(`[._]`)
	spaceRe     = regexp.MustCompile(`\s+`)

	// Season/episode markers, most specific form first.
	fullEpisodeRe = regexp.MustCompile(`(?i)\bS\d{1,2}E\d{1,3}\b`)
	seasonWordRe  = regexp.MustCompile(`(?i)\bSaison\s+\d{1,2}\b`)
	seasonOnlyRe  = regexp.MustCompile(`(?i)\bS\d{1,2}\b`)

	yearCandidateRe = regexp.MustCompile(`(19|20)\d{2}`)

	trailingPunctRe = regexp.MustCompile(`[-–_:()\[\]]+$`)
)

// releaseTags is the fixed vocabulary of technical release tokens stripped
// from display titles. Order does not matter; tokens are removed as whole
// words wherever they appear.
var releaseTags = []string{
	"HYBRID", "MULTI", "MULTI VF2", "VF2", "VFF", "VFI", "VOSTFR",
	"TRUEFRENCH", "FRENCH",
	"WEBRIP", "WEB", "WEB DL", "WEBDL", "WEB-DL",
	"NF", "AMZN", "HMAX",
	"BLURAY", "BDRIP", "BRRIP", "BR RIP", "HDRIP", "DVDRIP", "HDTV",
	"1080P", "2160P", "720P", "4K", "UHD",
	"10BIT", "8BIT", "HDR", "HDR10", "HDR10PLUS", "DOLBY VISION", "DV",
	"X264", "X265", "H264", "H265", "AV1",
	"DDP5", "DDP5.1", "DDP", "AC3", "DTS", "DTS HD", "TRUEHD", "ATMOS",
	"THESYNDICATE", "QTZ", "SUPPLY", "BTT", "OUI",
}

var releaseTagRe = buildTagRegexp(releaseTags)

func buildTagRegexp(tags []string) *regexp.Regexp {
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = regexp.QuoteMeta(tag)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// GuessTitleAndYear derives a clean display title and a release year from a
// raw release name. Year 0 means no plausible year token was found. For
// series-kind titles everything after the first season/episode marker is
// discarded before further processing.
func GuessTitleAndYear(rawTitle string, kind Kind) (string, int) {
	if rawTitle == "" {
		return "", 0
	}

	t := bracketRe.ReplaceAllString(rawTitle, " ")

	if kind == KindSeries {
		for _, re := range []*regexp.Regexp{fullEpisodeRe, seasonOnlyRe} {
			if loc := re.FindStringIndex(t); loc != nil && loc[0] > 0 {
				t = t[:loc[0]]
				break
			}
		}
	}

	t = separatorRe.ReplaceAllString(t, " ")

	year := 0
	name := t
	if loc := findYear(t); loc != nil {
		year, _ = strconv.Atoi(t[loc[0]:loc[1]])
		name = strings.TrimSpace(t[:loc[0]])
	}

	name = releaseTagRe.ReplaceAllString(name, " ")
	name = trailingPunctRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(spaceRe.ReplaceAllString(name, " "))

	switch {
	case name != "":
		return name, year
	case year == 0:
		// Nothing recognizable: fall back to a lightly normalized raw title
		// rather than an empty display name.
		return strings.TrimSpace(separatorRe.ReplaceAllString(rawTitle, " ")), 0
	default:
		return "", year
	}
}

// findYear locates the first 4-digit token in [1900,2099] that is not
// followed by another digit.
func findYear(s string) []int {
	for _, loc := range yearCandidateRe.FindAllStringIndex(s, -1) {
		if loc[1] < len(s) && s[loc[1]] >= '0' && s[loc[1]] <= '9' {
			continue
		}
		return loc
	}
	return nil
}

// ExtractEpisodeInfo returns the season/episode token of a raw title, or ""
// when none is present. Precedence: S01E03 > "Saison 1" > S01; first match
// wins.
func ExtractEpisodeInfo(rawTitle string) string {
	if rawTitle == "" {
		return ""
	}

	t := bracketRe.ReplaceAllString(rawTitle, " ")

	if m := fullEpisodeRe.FindString(t); m != "" {
		return strings.ToUpper(m)
	}
	if m := seasonWordRe.FindString(t); m != "" {
		return spaceRe.ReplaceAllString(m, " ")
	}
	if m := seasonOnlyRe.FindString(t); m != "" {
		return strings.ToUpper(m)
	}

	return ""
}

var (
	res2160Re = regexp.MustCompile(`\b(2160P|4K)\b`)
	res1080Re = regexp.MustCompile(`\b1080P\b`)
	res720Re  = regexp.MustCompile(`\b720P\b`)

	codecHEVCRe = regexp.MustCompile(`\b(HEVC|H\.?265|X265)\b`)
	codecAVCRe  = regexp.MustCompile(`\b(H\.?264|X264)\b`)
	codecAV1Re  = regexp.MustCompile(`\bAV1\b`)
)

// ExtractQuality returns a "resolution - codec" label, either half alone when
// only one is detected, or "" when neither is present.
func ExtractQuality(rawTitle string) string {
	if rawTitle == "" {
		return ""
	}

	upper := strings.ToUpper(rawTitle)

	var resolution string
	switch {
	case res2160Re.MatchString(upper):
		resolution = "2160p"
	case res1080Re.MatchString(upper):
		resolution = "1080p"
	case res720Re.MatchString(upper):
		resolution = "720p"
	}

	var codec string
	switch {
	case codecHEVCRe.MatchString(upper):
		codec = "x265 / H.265"
	case codecAVCRe.MatchString(upper):
		codec = "x264 / H.264"
	case codecAV1Re.MatchString(upper):
		codec = "AV1"
	}

	var parts []string
	if resolution != "" {
		parts = append(parts, resolution)
	}
	if codec != "" {
		parts = append(parts, codec)
	}

	return strings.Join(parts, " - ")
}
