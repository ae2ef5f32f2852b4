package recalc

import "morphcalc/internal/config"

// updateTags maps a card's unknown count onto its note's status tags:
// 0 unknowns → known, exactly 1 → ready, 2 or more → not-ready. The three
// tags are mutually exclusive; the other two are always removed. Adding and
// removing are idempotent.
func updateTags(tags []string, unknowns int, opts config.Options) []string {
	switch {
	case unknowns == 0:
		tags = removeTag(tags, opts.TagReady)
		tags = removeTag(tags, opts.TagNotReady)
		tags = addTag(tags, opts.TagKnown)
	case unknowns == 1:
		tags = removeTag(tags, opts.TagKnown)
		tags = removeTag(tags, opts.TagNotReady)
		tags = addTag(tags, opts.TagReady)
	default:
		tags = removeTag(tags, opts.TagKnown)
		tags = removeTag(tags, opts.TagReady)
		tags = addTag(tags, opts.TagNotReady)
	}
	return tags
}

func addTag(tags []string, tag string) []string {
	if hasTag(tags, tag) {
		return tags
	}
	return append(tags, tag)
}

func removeTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
