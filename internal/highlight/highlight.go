package highlight

import (
	"regexp"
	"sort"
	"strings"

	"morphcalc/internal/morph"
)

// Annotated pairs a morpheme surface form with its highest learning interval.
type Annotated struct {
	Surface  string
	Interval int
}

// spanRE matches an existing highlight region, tags included. Already-wrapped
// text is passed through untouched, which makes Text idempotent.
var spanRE = regexp.MustCompile(`(?s)<span.*?</span>`)

// Text wraps every occurrence of each morpheme in text with a
// <span morph-status="..."> carrying its maturity relative to knownThreshold.
// Morphemes are substituted longest surface first so a shorter morpheme never
// clobbers a longer one containing it, and substitution never reaches inside
// an existing span.
func Text(text string, morphs []Annotated, knownThreshold int) string {
	sorted := make([]Annotated, len(morphs))
	copy(sorted, morphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Surface) > len(sorted[j].Surface)
	})

	for _, m := range sorted {
		if m.Surface == "" {
			continue
		}
		status := morph.StatusOf(m.Interval, knownThreshold)
		re := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(m.Surface) + `)`)
		repl := `<span morph-status="` + string(status) + `">$1</span>`
		text = nonSpanSub(re, repl, text)
	}
	return text
}

// nonSpanSub applies re's replacement only to the segments of text lying
// outside existing span regions.
func nonSpanSub(re *regexp.Regexp, repl, text string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range spanRE.FindAllStringIndex(text, -1) {
		sb.WriteString(re.ReplaceAllString(text[last:loc[0]], repl))
		sb.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(re.ReplaceAllString(text[last:], repl))
	return sb.String()
}
