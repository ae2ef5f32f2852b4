package morphemizer

import (
	"fmt"
	"strings"
	"unicode"

	"morphcalc/internal/morph"
)

// Morphemizer splits raw card text into morphemes. Implementations must be
// safe for repeated use; the engine calls Extract once per card field.
type Morphemizer interface {
	// Name is the identifier used in filter configuration.
	Name() string
	// Extract returns the morphemes found in text, in order of appearance.
	// Duplicates are allowed; callers dedupe per card.
	Extract(text string) []morph.Morpheme
}

// ByName resolves a morphemizer from its configured name.
func ByName(name string) (Morphemizer, error) {
	switch name {
	case "space":
		return &SpaceMorphemizer{}, nil
	case "cjkchar":
		return &CJKCharMorphemizer{}, nil
	default:
		return nil, fmt.Errorf("unknown morphemizer %q", name)
	}
}

// SpaceMorphemizer treats every run of letters and digits as one morpheme,
// with the lowercased token as its normalized form. It is the fallback for
// languages where whitespace already separates words.
type SpaceMorphemizer struct{}

func (s *SpaceMorphemizer) Name() string { return "space" }

func (s *SpaceMorphemizer) Extract(text string) []morph.Morpheme {
	var morphs []morph.Morpheme
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		surface := current.String()
		norm := strings.ToLower(surface)
		morphs = append(morphs, morph.Morpheme{
			Norm:      norm,
			Base:      norm,
			Inflected: surface,
		})
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '\'' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return morphs
}

// CJKCharMorphemizer treats every CJK ideograph as its own morpheme. Useful
// as a crude strategy for Japanese and Chinese when no dictionary-based
// tokenizer is configured.
type CJKCharMorphemizer struct{}

func (c *CJKCharMorphemizer) Name() string { return "cjkchar" }

func (c *CJKCharMorphemizer) Extract(text string) []morph.Morpheme {
	var morphs []morph.Morpheme
	for _, r := range text {
		if !isCJK(r) {
			continue
		}
		s := string(r)
		morphs = append(morphs, morph.Morpheme{Norm: s, Base: s, Inflected: s})
	}
	return morphs
}

// isCJK reports whether r is a CJK ideograph: the extension A block, the
// unified block, or the compatibility block.
func isCJK(r rune) bool {
	switch {
	case r >= 0x3400 && r <= 0x4DB5:
		return true
	case r >= 0x4E00 && r <= 0x9FCB:
		return true
	case r >= 0xF900 && r <= 0xFA6A:
		return true
	}
	return false
}
