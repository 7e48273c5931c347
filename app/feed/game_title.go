package feed

import (
	"regexp"
	"strings"
)

// Game release names carry a different kind of noise than movie rips:
// repack group tags, build numbers, version strings, update suffixes.
// Each rule below is independent and idempotent, so the display pipeline and
// the search pipeline can share a common prefix.
var (
	gameStatsRe      = regexp.MustCompile(`(?i)\(S:\d+/L:\d+\)`)
	gameParenDigitRe = regexp.MustCompile(`\([^)]*\d[^)]*\)`)

	gameTagRe = regexp.MustCompile(`(?i)\b(FitGirl|Repack|ElAmigos|TENOKE|RUNE|Mephisto|GOG|PORTABLE|WIN|X64|X86|MULTI\d*|MULTI|EN|FR|VOICES\d+|Net8)\b`)

	gameBuildSlashNumRe = regexp.MustCompile(`(?i)\s*/\s*\d+\s*build\b.*$`)
	gameBuildSlashRe    = regexp.MustCompile(`(?i)\s*/\s*build\b.*$`)
	gameBuildRe         = regexp.MustCompile(`(?i)\bbuild\b.*$`)

	gameUpdatePunctRe = regexp.MustCompile(`(?i)[:\-]\s*Update\b.*$`)
	gameUpdateRe      = regexp.MustCompile(`(?i)\bUpdate\b.*$`)

	gameDateIDRe  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}-\d+\b`)
	gameVTokenRe  = regexp.MustCompile(`(?i)\bV\d{6,}(?:\.\d+)*\b`)
	gameVersionRe = regexp.MustCompile(`(?i)\bv\d+(?:[._]\d+)+\b`)
	gameDottedRe  = regexp.MustCompile(`\b\d+(?:[._]\d+)+\b`)
	gameLongNumRe = regexp.MustCompile(`\b\d{5,}\b`)

	gameTrailingPunctRe = regexp.MustCompile(`[\s:\-–_]+$`)
)

// CleanGameTitle derives the display title of a game release.
func CleanGameTitle(rawTitle string) string {
	if rawTitle == "" {
		return ""
	}

	t := rawTitle
	t = bracketRe.ReplaceAllString(t, " ")
	t = gameStatsRe.ReplaceAllString(t, " ")
	t = gameParenDigitRe.ReplaceAllString(t, " ")
	// version tokens must go before the separator pass turns their dots
	// into spaces
	t = gameDateIDRe.ReplaceAllString(t, " ")
	t = gameVTokenRe.ReplaceAllString(t, " ")
	t = gameVersionRe.ReplaceAllString(t, " ")
	t = gameDottedRe.ReplaceAllString(t, " ")
	t = separatorRe.ReplaceAllString(t, " ")
	t = gameTagRe.ReplaceAllString(t, " ")
	t = gameBuildSlashNumRe.ReplaceAllString(t, " ")
	t = gameBuildSlashRe.ReplaceAllString(t, " ")
	t = gameBuildRe.ReplaceAllString(t, " ")
	t = gameUpdatePunctRe.ReplaceAllString(t, " ")
	t = gameUpdateRe.ReplaceAllString(t, " ")
	t = gameLongNumRe.ReplaceAllString(t, " ")
	t = gameTrailingPunctRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))

	if t == "" {
		raw := separatorRe.ReplaceAllString(rawTitle, " ")
		return strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	}

	return t
}

var (
	gameManualRe  = regexp.MustCompile(`(?i)\b(Manual|CE)\b.*$`)
	gameEditionRe = regexp.MustCompile(`(?i)\b(Relaunched|Deluxe Edition|Ultimate Edition|Royal Edition|Digital Deluxe Edition|Complete Edition|Game of the Year)\b.*$`)
	gameDLCRe     = regexp.MustCompile(`(?i)\+\s*DLCs?/?Bonuses?.*$`)
	gameBuildNumRe = regexp.MustCompile(`(?i)\bbuild\s*\d+\b.*$`)
	gameGroupRe    = regexp.MustCompile(`(?i)\s*[-–]\s*(P2P|Repack.*)$`)
)

// CleanGameSearchTitle derives the search query sent to the game metadata
// provider. It strips more aggressively than CleanGameTitle: edition and DLC
// suffixes often prevent a catalog match.
func CleanGameSearchTitle(rawTitle string) string {
	t := CleanGameTitle(rawTitle)
	if t == "" {
		return ""
	}

	t = gameManualRe.ReplaceAllString(t, " ")
	t = gameEditionRe.ReplaceAllString(t, " ")
	t = gameDLCRe.ReplaceAllString(t, " ")
	t = gameUpdateRe.ReplaceAllString(t, " ")
	t = gameBuildSlashRe.ReplaceAllString(t, " ")
	t = gameBuildNumRe.ReplaceAllString(t, " ")
	t = gameGroupRe.ReplaceAllString(t, " ")
	t = gameTrailingPunctRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))

	return t
}

// GameSearchQueries returns the query variants to try against the game
// provider, the full cleaned title first. Subtitles after ":", " - " or
// " – " often prevent a match, so the prefix before the first such separator
// is tried as a fallback.
func GameSearchQueries(rawTitle string) []string {
	main := CleanGameSearchTitle(rawTitle)
	if main == "" {
		return nil
	}

	queries := []string{main}
	seen := map[string]bool{main: true}

	add := func(q string) {
		q = strings.TrimSpace(q)
		if q != "" && !seen[q] {
			queries = append(queries, q)
			seen[q] = true
		}
	}

	if idx := strings.Index(main, ":"); idx >= 0 {
		add(main[:idx])
	}
	if idx := strings.Index(main, " - "); idx >= 0 {
		add(main[:idx])
	}
	if idx := strings.Index(main, " – "); idx >= 0 {
		add(main[:idx])
	}

	return queries
}
