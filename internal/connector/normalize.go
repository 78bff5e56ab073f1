package connector

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// StripHTML drops markup from scraped descriptions and collapses the
// remaining whitespace.
func StripHTML(text string) string {
	if text == "" {
		return ""
	}
	cleaned := htmlTagRe.ReplaceAllString(text, " ")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// MakeEventID derives the stable natural key for an event. The same
// title/start/source always hashes to the same id, so re-scrapes update
// rather than duplicate.
func MakeEventID(title string, start time.Time, source string) string {
	raw := title + "|" + start.UTC().Format(time.RFC3339) + "|" + source
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:32]
}
