package transcript

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
)

// ApplyNames rewrites every "[timestamp ]Identifier:" marker of base as
// "[timestamp ]Name:". A nil base yields "".
//
// Identifiers are tried longest first (ties in ascending order) inside one
// alternation, so "Speaker AB:" is never eaten by "Speaker A" and a replacement
// is never rewritten again. Markers whose name equals the identifier are copied
// through untouched, which makes an identity mapping a no-op.
func ApplyNames(base *string, assignments entities.SpeakerAssignments) string {
	if base == nil {
		return ""
	}
	text := *base
	if text == "" || len(assignments) == 0 {
		return text
	}

	re, canonical := buildMarkerPattern(assignments)
	if re == nil {
		return text
	}
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		// m: full match, timestamp group, identifier group
		b.WriteString(text[last:m[0]])
		last = m[1]

		id := canonical[strings.ToLower(text[m[4]:m[5]])]
		name := assignments.NameFor(id)
		if name == id {
			b.WriteString(text[m[0]:m[1]])
			continue
		}
		if m[2] >= 0 {
			b.WriteString(text[m[2]:m[3]])
		}
		b.WriteString(name)
		b.WriteByte(':')
	}
	b.WriteString(text[last:])
	return b.String()
}

// SortIdentifiers orders identifiers longest first, then lexicographically
func SortIdentifiers(ids []string) []string {
	out := append([]string{}, ids...)
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(out[i]), utf8.RuneCountInString(out[j])
		if li != lj {
			return li > lj
		}
		return out[i] < out[j]
	})
	return out
}

func buildMarkerPattern(assignments entities.SpeakerAssignments) (*regexp.Regexp, map[string]string) {
	ids := make([]string, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}
	ids = SortIdentifiers(ids)

	canonical := make(map[string]string, len(ids))
	alternatives := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		key := strings.ToLower(id)
		if _, dup := canonical[key]; dup {
			continue
		}
		canonical[key] = id
		alternatives = append(alternatives, regexp.QuoteMeta(id))
	}

	if len(alternatives) == 0 {
		return nil, nil
	}

	expr := `(?i)(` + timestampPattern + `)?(` + strings.Join(alternatives, "|") + `):`
	return regexp.MustCompile(expr), canonical
}
