// Package corpus counts morpheme frequencies in external text corpora, which
// is useful for sanity-checking a morphemizer against real material before
// pointing a filter at it. Corpora are plain text files, locally on disk or
// fetched from a git repository.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"morphcalc/internal/morph"
	"morphcalc/internal/morphemizer"
)

// FreqEntry is one morpheme with its occurrence count.
type FreqEntry struct {
	Morph morph.Morpheme
	Count int
}

// Count tallies every morpheme in the given files with the given morphemizer
// and returns entries sorted by count descending, then by norm and inflected
// for a stable listing.
func Count(paths []string, mizer morphemizer.Morphemizer) ([]FreqEntry, error) {
	counts := make(map[morph.Key]FreqEntry)

	for _, path := range paths {
		if err := countFile(path, mizer, counts); err != nil {
			return nil, err
		}
	}

	entries := make([]FreqEntry, 0, len(counts))
	for _, e := range counts {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if entries[i].Morph.Norm != entries[j].Morph.Norm {
			return entries[i].Morph.Norm < entries[j].Morph.Norm
		}
		return entries[i].Morph.Inflected < entries[j].Morph.Inflected
	})
	return entries, nil
}

func countFile(path string, mizer morphemizer.Morphemizer, counts map[morph.Key]FreqEntry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open corpus file %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		for _, m := range mizer.Extract(scanner.Text()) {
			e := counts[m.Key()]
			e.Morph = m
			e.Count++
			counts[m.Key()] = e
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}
	return nil
}
