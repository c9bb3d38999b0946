package transcript

import (
	"regexp"
	"strings"
)

// DefaultSpeakerLabels are the words collaborators put in front of a speaker cluster
var DefaultSpeakerLabels = []string{"Speaker", "Диктор"}

// timestampPattern matches "[HH:MM:SS]" or "[HH:MM:SS.fraction]" plus trailing spaces
const timestampPattern = `\[\d{2}:\d{2}:\d{2}(?:\.\d+)?\]\s*`

// Extractor finds speaker identifiers such as "Speaker A" or "Диктор 2" in a transcript
type Extractor struct {
	pattern *regexp.Regexp
}

// NewExtractor builds an extractor for the given label words.
// With no labels it falls back to DefaultSpeakerLabels.
func NewExtractor(labels ...string) *Extractor {
	if len(labels) == 0 {
		labels = DefaultSpeakerLabels
	}
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			quoted = append(quoted, regexp.QuoteMeta(l))
		}
	}
	expr := `(?i)(?:` + timestampPattern + `)?((?:` + strings.Join(quoted, "|") + `)\s*[A-ZА-ЯЁ0-9]+):`
	return &Extractor{pattern: regexp.MustCompile(expr)}
}

// Extract returns the unique identifiers in order of first appearance.
// Duplicates are detected case-insensitively; the first-seen casing is kept.
func (e *Extractor) Extract(text string) []string {
	ids := []string{}
	if text == "" {
		return ids
	}

	seen := make(map[string]struct{})
	for _, m := range e.pattern.FindAllStringSubmatch(text, -1) {
		id := strings.TrimSpace(m[1])
		key := strings.ToLower(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

var defaultExtractor = NewExtractor()

// ExtractSpeakerIDs runs the default extractor
func ExtractSpeakerIDs(text string) []string {
	return defaultExtractor.Extract(text)
}
