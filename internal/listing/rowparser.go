package listing

import (
	"html"
	"regexp"
	"strings"

	"shareplay/internal/logging"
	"shareplay/internal/metrics"
)

// rowIDPattern anchors the primary pass. A row fragment runs from its
// per-item id attribute to the next row's, so nested markup stays inside
// the fragment it belongs to without needing balanced tags.
var rowIDPattern = regexp.MustCompile(`(?i)\bdata-id="([^"]+)"`)

// namePatterns are tried in order against a row fragment; the first match
// wins. Non-greedy and quote-bounded so names containing parentheses or
// dashes survive intact.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<(?:strong|b|em)\b[^>]*>\s*([^<]+?)\s*</(?:strong|b|em)>`),
	regexp.MustCompile(`(?i)\bdata-title="([^"]+)"`),
	regexp.MustCompile(`(?i)\baria-label="([^"]+)"`),
	regexp.MustCompile(`(?i)\stitle="([^"]+)"`),
}

// fallbackPairPattern is the looser whole-document scan: an id attribute
// directly followed by a title-like attribute inside the same tag.
var fallbackPairPattern = regexp.MustCompile(`(?i)\b(?:data-)?id="([^"]+)"[^<>]*?\b(?:data-title|aria-label|title)="([^"]+)"`)

// validIDPattern accepts the opaque identifiers the share service hands
// out, which are never shorter than 20 characters. The fallback pass uses
// it to reject generic DOM ids like "nav" or "app".
var validIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{20,}$`)

// folderMarkers distinguish folder rows from file rows. Folders are flagged
// by icon class names or a literal glyph in the markup, never by extension.
var folderMarkers = []string{
	"icon-folder",
	"folder-icon",
	"fa-folder",
	"\U0001F4C1",
}

// RowParser extracts entries from share listing HTML with pattern matching.
// It is duck-typed over whatever markup the service serves and makes no
// attempt at full HTML parsing.
type RowParser struct{}

// NewRowParser creates a listing parser.
func NewRowParser() *RowParser {
	return &RowParser{}
}

// Parse scans listing HTML and returns the deduplicated entries it found.
// It never fails; markup with no recognizable rows yields an empty slice.
//
// The primary pass walks id-anchored row fragments. Only when that yields
// nothing does the looser fallback scan run. Duplicate ids across both
// passes keep their first occurrence.
func (p *RowParser) Parse(doc string) []Entry {
	seen := make(map[string]bool)
	entries := p.parsePrimary(doc, seen)

	if len(entries) == 0 {
		fallback := p.parseFallback(doc, seen)
		if len(fallback) > 0 {
			logging.Debug("Listing primary pass found nothing, fallback recovered %d entries", len(fallback))
			metrics.ListingParseFallbacks.Inc()
		}
		entries = append(entries, fallback...)
	}

	for _, e := range entries {
		metrics.ListingEntriesParsed.WithLabelValues(string(e.Kind)).Inc()
	}
	if len(entries) == 0 {
		metrics.ListingParseEmpty.Inc()
	}

	return entries
}

// parsePrimary extracts id-anchored row fragments and applies the ordered
// name patterns to each. Fragments with no name match are skipped. Ids
// already in seen are skipped, first occurrence wins.
func (p *RowParser) parsePrimary(doc string, seen map[string]bool) []Entry {
	matches := rowIDPattern.FindAllStringSubmatchIndex(doc, -1)
	if matches == nil {
		return []Entry{}
	}

	entries := make([]Entry, 0, len(matches))
	for i, m := range matches {
		id := doc[m[2]:m[3]]
		if seen[id] {
			continue
		}

		start := m[0]
		end := len(doc)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		fragment := doc[start:end]

		name := extractName(fragment)
		if name == "" {
			continue
		}

		seen[id] = true
		entries = append(entries, Entry{
			ID:   id,
			Name: name,
			Kind: classify(fragment, name),
		})
	}

	return entries
}

// parseFallback runs the looser id/title attribute-pair scan over the whole
// document. Pairs with an implausible id or an empty name are rejected, and
// ids already in seen are skipped.
func (p *RowParser) parseFallback(doc string, seen map[string]bool) []Entry {
	matches := fallbackPairPattern.FindAllStringSubmatch(doc, -1)
	if matches == nil {
		return []Entry{}
	}

	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		id := m[1]
		name := strings.TrimSpace(html.UnescapeString(m[2]))
		if seen[id] || name == "" || !validIDPattern.MatchString(id) {
			continue
		}

		seen[id] = true
		entries = append(entries, Entry{
			ID:   id,
			Name: name,
			Kind: kindForName(name),
		})
	}

	return entries
}

// extractName applies the ordered name patterns to a row fragment and
// returns the first hit, entity-unescaped and trimmed. Returns "" when no
// pattern matches.
func extractName(fragment string) string {
	for _, pattern := range namePatterns {
		if m := pattern.FindStringSubmatch(fragment); m != nil {
			name := strings.TrimSpace(html.UnescapeString(m[1]))
			if name != "" {
				return name
			}
		}
	}
	return ""
}

// classify decides an entry's kind. Folder markers in the fragment take
// precedence; everything else is classified by the name's extension.
func classify(fragment, name string) Kind {
	lower := strings.ToLower(fragment)
	for _, marker := range folderMarkers {
		if strings.Contains(lower, marker) {
			return KindFolder
		}
	}
	return kindForName(name)
}
